package relay

import (
	"encoding/json"

	"github.com/lottoline/bingo-relay/game"
	"github.com/lottoline/bingo-relay/utils/logger"
)

// route dispatches one inbound envelope. Runs on the hub loop. Every
// failure is local to the sender: an error envelope back, never a
// broadcast, never a dropped connection.
func (h *Hub) route(sessionID string, env Envelope) {
	s, ok := h.registry.Lookup(sessionID)
	if !ok {
		// Connection raced its own disconnect; nothing to reply to.
		return
	}

	switch env.Type {
	case EventJoinGame:
		h.handleJoin(s, env.Data)
	case EventCallNumber:
		h.handleCallNumber(s, env.Data)
	case EventAnnounceWinner:
		h.handleAnnounceWinner(s, env.Data)
	case EventSendChat, EventSendMessage:
		h.handleChat(s, env.Data)
	case EventUpdateBoard:
		h.handleBoardUpdate(s, env.Data)
	case EventPing:
		h.sendTo(s, EventPong, struct{}{})
	default:
		h.sendError(s, "unknown event type", env.Type)
	}
}

func (h *Hub) handleJoin(s *Session, data json.RawMessage) {
	var p JoinGamePayload
	if err := json.Unmarshal(data, &p); err != nil || p.GameID == "" {
		h.sendError(s, "invalid join-game payload", EventJoinGame)
		return
	}

	now := h.now()

	// Switching rooms implies leaving the old one first.
	if s.GameID != "" && s.GameID != p.GameID {
		h.reconcileLeave(s)
	}

	variant := p.Variant
	if variant == "" {
		variant = h.cfg.DefaultVariant
	}
	rec, created := h.rooms.GetOrCreate(p.GameID, variant, now)
	if created {
		logger.Infof("[Hub] room %s created (variant=%s)", rec.ID, rec.Variant)
	}

	player := game.Player{
		ConnectionID: s.ID,
		Name:         p.Name,
		Contact:      p.Contact,
		BoardID:      p.BoardID,
		Stake:        p.Stake,
	}
	rec.AddOrUpdatePlayer(player, now)
	h.registry.UpdateSession(s.ID, p.Name, p.Contact, p.GameID)

	logger.Infof("[Hub] %s joined room %s (players=%d)", s.ID, rec.ID, len(rec.Players))

	h.sendTo(s, EventGameState, rec.Snapshot(h.cfg.RecentCallLimit))

	joined, _ := h.lookupPlayer(rec, s.ID)
	h.broadcastRoom(rec, EventPlayerJoined, PlayerJoinedPayload{
		GameID: rec.ID,
		Player: joined,
	}, s.ID)
}

func (h *Hub) handleCallNumber(s *Session, data json.RawMessage) {
	var p CallNumberPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Value == nil {
		h.sendError(s, "invalid call-number payload", EventCallNumber)
		return
	}

	rec, ok := h.resolveRoom(s, p.GameID, EventCallNumber)
	if !ok {
		return
	}

	now := h.now()
	if !rec.AppendCall(s.ID, *p.Value, p.Display, now) {
		// Non-host call in a hosted room: dropped without an error reply.
		logger.Debugf("[Hub] ignored call from non-host %s in room %s", s.ID, rec.ID)
		return
	}

	h.broadcastRoom(rec, EventNumberCalled, NumberCalledPayload{
		GameID:        rec.ID,
		Call:          rec.CalledNumbers[len(rec.CalledNumbers)-1],
		CalledNumbers: rec.Recent(h.cfg.RecentCallLimit),
		CalledCount:   len(rec.CalledNumbers),
	}, "")
}

func (h *Hub) handleAnnounceWinner(s *Session, data json.RawMessage) {
	var p AnnounceWinnerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(s, "invalid announce-winner payload", EventAnnounceWinner)
		return
	}

	rec, ok := h.resolveRoom(s, p.GameID, EventAnnounceWinner)
	if !ok {
		return
	}

	rec.AnnounceWinner(game.Winner{
		ConnectionID: s.ID,
		Name:         s.Name,
		Pattern:      p.Pattern,
		Amount:       p.Amount,
	}, h.now())

	logger.Infof("[Hub] winner announced in room %s by %s (pattern=%s)", rec.ID, s.ID, p.Pattern)

	h.broadcastRoom(rec, EventWinnerAnnounced, WinnerAnnouncedPayload{
		GameID: rec.ID,
		Winner: *rec.Winner,
		Status: rec.Status,
	}, "")
}

func (h *Hub) handleChat(s *Session, data json.RawMessage) {
	var p ChatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Text == "" {
		h.sendError(s, "invalid chat payload", EventSendChat)
		return
	}

	rec, ok := h.resolveRoom(s, p.GameID, EventSendChat)
	if !ok {
		return
	}
	rec.Touch(h.now())

	// Chat echoes to the sender too: thin clients render from the
	// broadcast alone.
	h.broadcastRoom(rec, EventChat, ChatBroadcastPayload{
		GameID: rec.ID,
		From:   s.ID,
		Name:   s.Name,
		Text:   p.Text,
	}, "")
}

func (h *Hub) handleBoardUpdate(s *Session, data json.RawMessage) {
	var p BoardUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil || len(p.Board) == 0 {
		h.sendError(s, "invalid update-board payload", EventUpdateBoard)
		return
	}

	rec, ok := h.resolveRoom(s, p.GameID, EventUpdateBoard)
	if !ok {
		return
	}
	rec.Touch(h.now())

	h.broadcastRoom(rec, EventBoardUpdated, BoardUpdatedPayload{
		GameID: rec.ID,
		From:   s.ID,
		Board:  p.Board,
	}, s.ID)
}

// resolveRoom maps an event to its room: the payload's gameId when given,
// the session's current room otherwise. A miss is answered with a
// sender-only "Game not found" and no mutation.
func (h *Hub) resolveRoom(s *Session, gameID, eventType string) (*game.Record, bool) {
	if gameID == "" {
		gameID = s.GameID
	}
	rec, ok := h.rooms.Get(gameID)
	if !ok {
		h.sendError(s, "Game not found", eventType)
		return nil, false
	}
	return rec, true
}

func (h *Hub) lookupPlayer(rec *game.Record, connectionID string) (game.Player, bool) {
	for _, pl := range rec.Players {
		if pl.ConnectionID == connectionID {
			return pl, true
		}
	}
	return game.Player{}, false
}

// handleDisconnect reconciles a closed transport. Unregistration is last:
// the roster cleanup still needs the session's room reference.
func (h *Hub) handleDisconnect(sessionID string) {
	s, ok := h.registry.Lookup(sessionID)
	if !ok {
		return
	}
	if s.GameID != "" {
		h.reconcileLeave(s)
	}
	h.registry.Unregister(s.ID)
	s.Conn.Close()
	logger.Infof("[Hub] connection %s gone (total=%d)", s.ID, h.registry.Len())
}

// reconcileLeave removes the session's player from its room and notifies
// the remaining members.
func (h *Hub) reconcileLeave(s *Session) {
	rec, ok := h.rooms.Get(s.GameID)
	s.GameID = ""
	if !ok {
		return
	}

	removed, found := rec.RemovePlayer(s.ID)
	if !found {
		return
	}

	h.broadcastRoom(rec, EventPlayerLeft, PlayerLeftPayload{
		GameID:       rec.ID,
		ConnectionID: removed.ConnectionID,
		Name:         removed.Name,
	}, s.ID)

	if rec.Empty() {
		h.evictEmpty(rec.ID)
	}
}
