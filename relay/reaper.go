package relay

import (
	"time"

	"github.com/lottoline/bingo-relay/utils/logger"
)

// evictEmpty applies the empty-room policy: immediate removal when no
// grace window is configured, otherwise a deferred re-checked eviction.
// Runs on the hub loop.
func (h *Hub) evictEmpty(gameID string) {
	if h.cfg.EmptyRoomGrace <= 0 {
		h.rooms.Remove(gameID)
		logger.Infof("[Reaper] room %s removed (empty)", gameID)
		return
	}
	h.scheduleGraceCheck(gameID)
}

// scheduleGraceCheck arms a one-shot timer whose check runs back on the
// loop. A rejoin during the window survives because the check re-reads
// the roster instead of trusting the state at scheduling time.
func (h *Hub) scheduleGraceCheck(gameID string) {
	time.AfterFunc(h.cfg.EmptyRoomGrace, func() {
		h.submitFunc(func() { h.graceCheck(gameID) })
	})
}

func (h *Hub) graceCheck(gameID string) {
	rec, ok := h.rooms.Get(gameID)
	if !ok || !rec.Empty() {
		return
	}
	h.rooms.Remove(gameID)
	logger.Infof("[Reaper] room %s removed (empty after grace)", gameID)
}

// sweepStale removes rooms whose last activity is older than the staleness
// threshold, roster or not. This bounds memory growth from abandoned rooms
// whose sockets never cleanly closed. Runs on the hub loop.
func (h *Hub) sweepStale() {
	if h.cfg.IdleStaleAfter <= 0 {
		return
	}
	now := h.now()
	for _, rec := range h.rooms.All() {
		if now.Sub(rec.LastActivity) <= h.cfg.IdleStaleAfter {
			continue
		}
		// Detach whatever sessions still point at the doomed room.
		for _, p := range rec.Players {
			if s, ok := h.registry.Lookup(p.ConnectionID); ok && s.GameID == rec.ID {
				s.GameID = ""
			}
		}
		h.rooms.Remove(rec.ID)
		logger.Infof("[Reaper] room %s removed (idle since %s, players=%d)",
			rec.ID, rec.LastActivity.Format(time.RFC3339), len(rec.Players))
	}
}
