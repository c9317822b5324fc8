package relay

import (
	"context"
	"time"

	"github.com/lottoline/bingo-relay/config"
	"github.com/lottoline/bingo-relay/game"
	"github.com/lottoline/bingo-relay/utils/logger"
)

// Hub owns the connection registry and the room directory. Every mutation
// runs on the single goroutine inside Run, one event to completion before
// the next, so neither structure needs a lock and a mutation plus its
// broadcast can never interleave with another event for the same room.
type Hub struct {
	cfg      config.Config
	registry *Registry
	rooms    *game.Directory

	register   chan *Session
	unregister chan string
	inbound    chan inboundEvent
	exec       chan func()
	stopped    chan struct{}

	now func() time.Time
}

type inboundEvent struct {
	sessionID string
	env       Envelope
}

func NewHub(cfg config.Config) *Hub {
	return &Hub{
		cfg:        cfg,
		registry:   NewRegistry(),
		rooms:      game.NewDirectory(),
		register:   make(chan *Session),
		unregister: make(chan string),
		inbound:    make(chan inboundEvent, 64),
		exec:       make(chan func()),
		stopped:    make(chan struct{}),
		now:        time.Now,
	}
}

// Run is the event loop. It returns when ctx is cancelled, after closing
// every live connection.
func (h *Hub) Run(ctx context.Context) {
	var sweep <-chan time.Time
	if h.cfg.IdleSweepInterval > 0 {
		ticker := time.NewTicker(h.cfg.IdleSweepInterval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	logger.Infof("[Hub] event loop started (sweep=%s stale=%s grace=%s)",
		h.cfg.IdleSweepInterval, h.cfg.IdleStaleAfter, h.cfg.EmptyRoomGrace)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case s := <-h.register:
			if err := h.registry.Register(s); err != nil {
				logger.Errorf("[Hub] register failed: %v", err)
				s.Conn.Close()
				continue
			}
			logger.Infof("[Hub] connection %s registered (total=%d)", s.ID, h.registry.Len())
		case id := <-h.unregister:
			h.handleDisconnect(id)
		case ev := <-h.inbound:
			h.route(ev.sessionID, ev.env)
		case fn := <-h.exec:
			fn()
		case <-sweep:
			h.sweepStale()
		}
	}
}

func (h *Hub) shutdown() {
	for _, r := range h.rooms.All() {
		h.rooms.Remove(r.ID)
	}
	for _, s := range h.registrySnapshot() {
		s.Conn.Close()
		h.registry.Unregister(s.ID)
	}
	close(h.stopped)
	logger.Info("[Hub] event loop stopped")
}

func (h *Hub) registrySnapshot() []*Session {
	out := make([]*Session, 0, h.registry.Len())
	for _, s := range h.registry.sessions {
		out = append(out, s)
	}
	return out
}

// Connect hands a freshly accepted connection to the loop.
func (h *Hub) Connect(s *Session) {
	select {
	case h.register <- s:
	case <-h.stopped:
		s.Conn.Close()
	}
}

// Submit queues one decoded inbound envelope for the loop.
func (h *Hub) Submit(sessionID string, env Envelope) {
	select {
	case h.inbound <- inboundEvent{sessionID: sessionID, env: env}:
	case <-h.stopped:
	}
}

// Disconnect reconciles a closed transport: roster removal, player-left
// notification, then unregistration.
func (h *Hub) Disconnect(sessionID string) {
	select {
	case h.unregister <- sessionID:
	case <-h.stopped:
	}
}

// submitFunc schedules fn on the loop without waiting for it.
func (h *Hub) submitFunc(fn func()) {
	select {
	case h.exec <- fn:
	case <-h.stopped:
	}
}

// do runs fn on the loop and waits. Returns false if the hub has stopped,
// in which case fn never ran.
func (h *Hub) do(fn func()) bool {
	done := make(chan struct{})
	select {
	case h.exec <- func() { fn(); close(done) }:
		<-done
		return true
	case <-h.stopped:
		return false
	}
}

// ---- synchronous query surface ----

type Health struct {
	ActiveGameCount       int `json:"activeGameCount"`
	ActiveConnectionCount int `json:"activeConnectionCount"`
}

func (h *Hub) Health() Health {
	var out Health
	h.do(func() {
		out = Health{
			ActiveGameCount:       h.rooms.Len(),
			ActiveConnectionCount: h.registry.Len(),
		}
	})
	return out
}

func (h *Hub) ListGames() []game.Summary {
	out := []game.Summary{}
	h.do(func() {
		for _, r := range h.rooms.All() {
			out = append(out, r.Summary())
		}
	})
	return out
}

func (h *Hub) GameDetail(id string) (game.Snapshot, bool) {
	var (
		snap  game.Snapshot
		found bool
	)
	h.do(func() {
		if r, ok := h.rooms.Get(id); ok {
			snap = r.Snapshot(0) // REST fetch exposes the full history
			found = true
		}
	})
	return snap, found
}

// CreateGame mints a room up front so clients can share its id before
// anyone joins. The empty room is subject to the usual eviction policies.
func (h *Hub) CreateGame(variant string) (game.Summary, bool) {
	if variant == "" {
		variant = h.cfg.DefaultVariant
	}
	id := game.NewGameID()
	var out game.Summary
	ok := h.do(func() {
		r, _ := h.rooms.GetOrCreate(id, variant, h.now())
		out = r.Summary()
		if h.cfg.EmptyRoomGrace > 0 {
			h.scheduleGraceCheck(id)
		}
	})
	return out, ok
}
