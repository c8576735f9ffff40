// Package race holds the authoritative multiplayer race state.
package race

import "time"

// Status is the lifecycle state of a race room. It only moves
// forward; a finished room is terminal and a rematch needs a new room.
type Status string

// Room states.
const (
	StatusWaiting      Status = "waiting"
	StatusCountingDown Status = "countdown"
	StatusInProgress   Status = "in_progress"
	StatusFinished     Status = "finished"
)

// Player is one racer inside a room. A connection maps to at most one
// player across all rooms.
type Player struct {
	ConnID   string  `json:"id"`
	Name     string  `json:"name"`
	Avatar   string  `json:"avatar"`
	Position int     `json:"position"`
	WPM      int     `json:"wpm"`
	Accuracy int     `json:"accuracy"`
	Progress float64 `json:"progress"`
	Finished bool    `json:"isFinished"`
	Ready    bool    `json:"isReady"`
}

// Room is a race session container with fixed capacity and shared text.
type Room struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	MaxPlayers int        `json:"maxPlayers"`
	Difficulty string     `json:"difficulty"`
	Status     Status     `json:"status"`
	Text       string     `json:"text"`
	Players    []Player   `json:"players"`
	Countdown  int        `json:"countdown"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
}

// Summary is the lobby-list view of a room.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Difficulty string `json:"difficulty"`
	Status     Status `json:"status"`
}

// Profile is the join-time identity a client supplies.
type Profile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (r *Room) snapshot() *Room {
	cp := *r
	cp.Players = make([]Player, len(r.Players))
	copy(cp.Players, r.Players)
	if r.StartedAt != nil {
		t := *r.StartedAt
		cp.StartedAt = &t
	}
	return &cp
}

func (r *Room) summary() Summary {
	return Summary{
		ID:         r.ID,
		Name:       r.Name,
		Players:    len(r.Players),
		MaxPlayers: r.MaxPlayers,
		Difficulty: r.Difficulty,
		Status:     r.Status,
	}
}

func (r *Room) finishedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Finished {
			n++
		}
	}
	return n
}
