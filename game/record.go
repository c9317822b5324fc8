package game

import "time"

const (
	StatusWaiting  = "waiting"
	StatusFinished = "finished"

	DefaultVariant = "75ball"
	DefaultBoardID = 1
	MinStake       = 10
)

// Player is a roster entry. The owning Record removes it when its
// connection leaves; it never outlives the room.
type Player struct {
	ConnectionID string    `json:"connectionId"`
	Name         string    `json:"name"`
	Contact      string    `json:"contact,omitempty"`
	BoardID      int       `json:"boardId"`
	Stake        float64   `json:"stake"`
	JoinedAt     time.Time `json:"joinedAt"`
	LastSeen     time.Time `json:"lastSeen"`
}

// Winner is set at most once per round; a later announce overwrites it.
type Winner struct {
	ConnectionID string    `json:"connectionId"`
	Name         string    `json:"name"`
	Pattern      string    `json:"pattern"`
	Amount       float64   `json:"amount"`
	AnnouncedAt  time.Time `json:"announcedAt"`
}

// Call is one called number. Display carries the caller-formatted label
// (e.g. "B7") so the server never re-derives column letters.
type Call struct {
	Value   int       `json:"value"`
	Display string    `json:"display,omitempty"`
	At      time.Time `json:"at"`
}

// Record is the authoritative state for one room. It has no internal
// locking: all mutation happens on the hub's event loop.
type Record struct {
	ID            string
	Variant       string
	Status        string // waiting | finished
	Players       []Player
	CalledNumbers []Call
	HostID        string // empty means anyone may call
	Winner        *Winner
	CreatedAt     time.Time
	LastActivity  time.Time
}

func NewRecord(id, variant string, now time.Time) *Record {
	if variant == "" {
		variant = DefaultVariant
	}
	return &Record{
		ID:           id,
		Variant:      variant,
		Status:       StatusWaiting,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// AddOrUpdatePlayer appends p to the roster, or merge-updates the existing
// entry with the same connection. The first player to join a hostless room
// becomes its host. Returns true if the player was newly added.
func (r *Record) AddOrUpdatePlayer(p Player, now time.Time) bool {
	if p.BoardID == 0 {
		p.BoardID = DefaultBoardID
	}
	if p.Stake == 0 {
		p.Stake = MinStake
	}
	p.LastSeen = now

	r.LastActivity = now
	if r.HostID == "" {
		r.HostID = p.ConnectionID
	}

	for i := range r.Players {
		if r.Players[i].ConnectionID == p.ConnectionID {
			p.JoinedAt = r.Players[i].JoinedAt // join order is sticky
			r.Players[i] = p
			return false
		}
	}

	p.JoinedAt = now
	r.Players = append(r.Players, p)
	return true
}

// RemovePlayer filters the roster and returns the removed entry so the
// caller can build a player-left notification. Emptying the roster does
// not delete the record; eviction is the reaper's job.
func (r *Record) RemovePlayer(connectionID string) (Player, bool) {
	for i := range r.Players {
		if r.Players[i].ConnectionID == connectionID {
			removed := r.Players[i]
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			r.LastActivity = time.Now()
			return removed, true
		}
	}
	return Player{}, false
}

// AppendCall records a called number if callerID is the host or the room
// has no host. An unauthorized call is silently ignored: no error, no
// mutation. Returns whether the call was accepted.
func (r *Record) AppendCall(callerID string, value int, display string, now time.Time) bool {
	if r.HostID != "" && callerID != r.HostID {
		return false
	}
	r.CalledNumbers = append(r.CalledNumbers, Call{Value: value, Display: display, At: now})
	r.LastActivity = now
	return true
}

// AnnounceWinner finishes the round. Always accepted; a second announce
// overwrites the first and the status stays finished.
func (r *Record) AnnounceWinner(w Winner, now time.Time) {
	w.AnnouncedAt = now
	r.Winner = &w
	r.Status = StatusFinished
	r.LastActivity = now
}

// Touch refreshes LastActivity for events that mutate nothing else
// (chat, board updates).
func (r *Record) Touch(now time.Time) {
	r.LastActivity = now
}

func (r *Record) Empty() bool {
	return len(r.Players) == 0
}

// Recent returns the trailing limit entries of the called-number history.
// limit <= 0 returns the full history. The returned slice is a copy.
func (r *Record) Recent(limit int) []Call {
	calls := r.CalledNumbers
	if limit > 0 && len(calls) > limit {
		calls = calls[len(calls)-limit:]
	}
	return append([]Call(nil), calls...)
}
