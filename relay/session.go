package relay

import (
	"fmt"
	"time"
)

// Sender is the transport half of a session. The websocket client
// implements it; tests supply fakes.
type Sender interface {
	// Send queues a message for delivery. It must not block the hub loop;
	// a full or closed transport returns an error.
	Send(msg []byte) error
	Close()
}

// Session is the metadata for one live connection. Name, Contact and
// GameID are set by the connection's own join-game events.
type Session struct {
	ID          string
	Name        string
	Contact     string
	GameID      string
	Conn        Sender
	ConnectedAt time.Time
}

// Registry maps connection IDs to sessions. Owned by the hub loop, so it
// carries no lock.
type Registry struct {
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register creates the entry for a freshly accepted connection. IDs are
// minted per accept and never reused, so a duplicate is a programming error.
func (r *Registry) Register(s *Session) error {
	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already registered", s.ID)
	}
	r.sessions[s.ID] = s
	return nil
}

// UpdateSession upserts session metadata. Called on every join-game event,
// re-joins included.
func (r *Registry) UpdateSession(id, name, contact, gameID string) {
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	if name != "" {
		s.Name = name
	}
	if contact != "" {
		s.Contact = contact
	}
	s.GameID = gameID
}

// Unregister removes the entry. It is the last step of disconnect
// handling: room reconciliation still needs the session data before this.
func (r *Registry) Unregister(id string) {
	delete(r.sessions, id)
}

func (r *Registry) Lookup(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Len() int {
	return len(r.sessions)
}
