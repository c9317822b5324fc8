package relay

import (
	"encoding/json"
	"time"

	"github.com/lottoline/bingo-relay/game"
)

// Inbound event types.
const (
	EventJoinGame       = "join-game"
	EventCallNumber     = "call-number"
	EventAnnounceWinner = "announce-winner"
	EventSendChat       = "send-chat"
	EventSendMessage    = "send-message" // legacy alias for send-chat
	EventUpdateBoard    = "update-board"
	EventPing           = "ping"
)

// Outbound event types.
const (
	EventGameState       = "game-state"
	EventPlayerJoined    = "player-joined"
	EventNumberCalled    = "number-called"
	EventWinnerAnnounced = "winner-announced"
	EventChat            = "chat"
	EventBoardUpdated    = "board-updated"
	EventPong            = "pong"
	EventPlayerLeft      = "player-left"
	EventError           = "error"
)

// Envelope is one inbound wire unit.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Outbound is one outbound wire unit. Timestamp is unix milliseconds.
type Outbound struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

func newOutbound(msgType string, data any, now time.Time) Outbound {
	return Outbound{Type: msgType, Data: data, Timestamp: now.UnixMilli()}
}

// ---- inbound payloads ----

type JoinGamePayload struct {
	GameID  string  `json:"gameId"`
	Variant string  `json:"variant,omitempty"`
	Name    string  `json:"name"`
	Contact string  `json:"contact,omitempty"`
	BoardID int     `json:"boardId,omitempty"`
	Stake   float64 `json:"stake,omitempty"`
}

type CallNumberPayload struct {
	GameID  string `json:"gameId,omitempty"`
	Value   *int   `json:"value"`
	Display string `json:"display,omitempty"`
}

type AnnounceWinnerPayload struct {
	GameID  string  `json:"gameId,omitempty"`
	Pattern string  `json:"pattern,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
}

type ChatPayload struct {
	GameID string `json:"gameId,omitempty"`
	Text   string `json:"text"`
}

type BoardUpdatePayload struct {
	GameID string          `json:"gameId,omitempty"`
	Board  json.RawMessage `json:"board"`
}

// ---- outbound payloads ----

type PlayerJoinedPayload struct {
	GameID string      `json:"gameId"`
	Player game.Player `json:"player"`
}

type NumberCalledPayload struct {
	GameID        string      `json:"gameId"`
	Call          game.Call   `json:"call"`
	CalledNumbers []game.Call `json:"calledNumbers"`
	CalledCount   int         `json:"calledCount"`
}

type WinnerAnnouncedPayload struct {
	GameID string      `json:"gameId"`
	Winner game.Winner `json:"winner"`
	Status string      `json:"status"`
}

type ChatBroadcastPayload struct {
	GameID string `json:"gameId"`
	From   string `json:"from"`
	Name   string `json:"name"`
	Text   string `json:"text"`
}

type BoardUpdatedPayload struct {
	GameID string          `json:"gameId"`
	From   string          `json:"from"`
	Board  json.RawMessage `json:"board"`
}

type PlayerLeftPayload struct {
	GameID       string `json:"gameId"`
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"` // offending inbound type, if known
}
