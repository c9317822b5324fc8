package game

import "time"

// Snapshot is the room-state payload pushed to joiners and returned by the
// single-room fetch. CalledNumbers is the bounded presentation view; the
// record keeps the full history server-side.
type Snapshot struct {
	GameID        string    `json:"gameId"`
	Variant       string    `json:"variant"`
	Status        string    `json:"status"`
	Players       []Player  `json:"players"`
	CalledNumbers []Call    `json:"calledNumbers"`
	CalledCount   int       `json:"calledCount"`
	HostID        string    `json:"hostId,omitempty"`
	Winner        *Winner   `json:"winner,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Summary is the listing-endpoint row.
type Summary struct {
	GameID      string    `json:"gameId"`
	Variant     string    `json:"variant"`
	PlayerCount int       `json:"playerCount"`
	Status      string    `json:"status"`
	CalledCount int       `json:"calledCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Snapshot copies the record into an outbound view, capping the called
// history at recentLimit (0 = full history).
func (r *Record) Snapshot(recentLimit int) Snapshot {
	return Snapshot{
		GameID:        r.ID,
		Variant:       r.Variant,
		Status:        r.Status,
		Players:       append([]Player(nil), r.Players...),
		CalledNumbers: r.Recent(recentLimit),
		CalledCount:   len(r.CalledNumbers),
		HostID:        r.HostID,
		Winner:        r.Winner,
		CreatedAt:     r.CreatedAt,
	}
}

func (r *Record) Summary() Summary {
	return Summary{
		GameID:      r.ID,
		Variant:     r.Variant,
		PlayerCount: len(r.Players),
		Status:      r.Status,
		CalledCount: len(r.CalledNumbers),
		CreatedAt:   r.CreatedAt,
	}
}
