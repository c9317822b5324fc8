package game

import (
	"time"

	"github.com/google/uuid"
)

// Directory maps game IDs to live records. It is owned by the hub's event
// loop and therefore unlocked; see relay.Hub.
type Directory struct {
	rooms map[string]*Record
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*Record)}
}

// NewGameID mints a server-generated room identifier.
func NewGameID() string {
	return uuid.NewString()
}

// GetOrCreate returns the existing record or creates one in the waiting
// state. The second return reports whether a record was created.
func (d *Directory) GetOrCreate(id, variant string, now time.Time) (*Record, bool) {
	if r, ok := d.rooms[id]; ok {
		return r, false
	}
	r := NewRecord(id, variant, now)
	d.rooms[id] = r
	return r, true
}

// Get looks a room up. Absence is a normal condition, not a fault.
func (d *Directory) Get(id string) (*Record, bool) {
	r, ok := d.rooms[id]
	return r, ok
}

// Remove deletes a record. Idempotent.
func (d *Directory) Remove(id string) {
	delete(d.rooms, id)
}

// All returns a point-in-time snapshot slice; later mutation of the
// directory does not invalidate it.
func (d *Directory) All() []*Record {
	out := make([]*Record, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, r)
	}
	return out
}

func (d *Directory) Len() int {
	return len(d.rooms)
}
