package relay

import (
	"encoding/json"

	"github.com/lottoline/bingo-relay/game"
	"github.com/lottoline/bingo-relay/utils/logger"
)

// broadcastRoom delivers one message to every live connection in the room,
// optionally excluding one. The payload is marshalled once. A failed send
// is logged and skipped; it never aborts delivery to the rest of the room.
func (h *Hub) broadcastRoom(rec *game.Record, msgType string, data any, exclude string) {
	msg, err := json.Marshal(newOutbound(msgType, data, h.now()))
	if err != nil {
		logger.Errorf("[Hub] marshal %s failed: %v", msgType, err)
		return
	}

	for _, p := range rec.Players {
		if p.ConnectionID == exclude {
			continue
		}
		s, ok := h.registry.Lookup(p.ConnectionID)
		if !ok {
			continue // roster entry whose transport is already gone
		}
		if err := s.Conn.Send(msg); err != nil {
			logger.Warnf("[Hub] dropping %s to %s: %v", msgType, s.ID, err)
		}
	}
}

// sendTo replies to a single connection.
func (h *Hub) sendTo(s *Session, msgType string, data any) {
	msg, err := json.Marshal(newOutbound(msgType, data, h.now()))
	if err != nil {
		logger.Errorf("[Hub] marshal %s failed: %v", msgType, err)
		return
	}
	if err := s.Conn.Send(msg); err != nil {
		logger.Warnf("[Hub] dropping %s to %s: %v", msgType, s.ID, err)
	}
}

// sendError is the sender-only error path. offendingType names the inbound
// type that triggered it, when known.
func (h *Hub) sendError(s *Session, message, offendingType string) {
	h.sendTo(s, EventError, ErrorPayload{Message: message, Type: offendingType})
}
