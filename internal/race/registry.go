package race

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/typewarrior/typewarrior/internal/words"
)

// Join rejections. These are anticipated outcomes of concurrent
// multi-client activity, surfaced as values rather than panics.
var (
	ErrRoomNotFound = errors.New("room does not exist")
	ErrRoomFull     = errors.New("room is full")
)

const defaultAvatar = "🎯"

// Registry owns every active room. All mutation goes through its
// methods; snapshots returned to callers are copies.
type Registry struct {
	mu         sync.Mutex
	rooms      map[string]*Room
	roomByConn map[string]string
	idgen      func() string
	clock      func() time.Time
	textIndex  int
}

// NewRegistry returns an empty registry with UUID room ids.
func NewRegistry() *Registry {
	return NewRegistryWithDeps(uuid.NewString, time.Now)
}

// NewRegistryWithDeps is NewRegistry with injected id and time
// sources, so independent test instances can run deterministically.
func NewRegistryWithDeps(idgen func() string, clock func() time.Time) *Registry {
	return &Registry{
		rooms:      make(map[string]*Room),
		roomByConn: make(map[string]string),
		idgen:      idgen,
		clock:      clock,
	}
}

// SeedDefaults creates the standing lobby rooms.
func (g *Registry) SeedDefaults() {
	g.CreateRoom("Speed Demons Only", 4, "Hard")
	g.CreateRoom("Beginner Friendly", 6, "Easy")
	g.CreateRoom("Quick Race", 3, "Medium")
	g.CreateRoom("Late Night Session", 5, "Medium")
}

// CreateRoom always succeeds and returns the new room snapshot. The
// shared text comes from the curated pool so all racers see identical
// text.
func (g *Registry) CreateRoom(name string, maxPlayers int, difficulty string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	if maxPlayers < 2 {
		maxPlayers = 2
	}
	if difficulty == "" {
		difficulty = "Medium"
	}
	room := &Room{
		ID:         g.idgen(),
		Name:       name,
		MaxPlayers: maxPlayers,
		Difficulty: difficulty,
		Status:     StatusWaiting,
		Text:       words.RaceText(g.textIndex),
	}
	g.textIndex++
	g.rooms[room.ID] = room
	return room.snapshot()
}

// Join adds a player to a room. Rejected when the room is missing or
// already at capacity.
func (g *Registry) Join(roomID, connID string, profile Profile) (*Room, *Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[roomID]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	if len(room.Players) >= room.MaxPlayers {
		return nil, nil, ErrRoomFull
	}

	name := profile.Name
	if name == "" {
		name = fmt.Sprintf("Player %d", len(room.Players)+1)
	}
	avatar := profile.Avatar
	if avatar == "" {
		avatar = defaultAvatar
	}
	player := Player{
		ConnID:   connID,
		Name:     name,
		Avatar:   avatar,
		Position: len(room.Players) + 1,
		Accuracy: 100,
	}
	room.Players = append(room.Players, player)
	g.roomByConn[connID] = roomID

	snap := room.snapshot()
	return snap, &snap.Players[len(snap.Players)-1], nil
}

// Leave removes the connection's player. The room is destroyed when
// it empties; a race in progress with one player left is finished,
// last player standing wins. Returns the room id the player was in
// and the updated snapshot (nil when the room was destroyed).
func (g *Registry) Leave(connID string) (string, *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()

	roomID, ok := g.roomByConn[connID]
	if !ok {
		return "", nil
	}
	delete(g.roomByConn, connID)
	room, ok := g.rooms[roomID]
	if !ok {
		return roomID, nil
	}

	kept := room.Players[:0]
	for _, p := range room.Players {
		if p.ConnID != connID {
			kept = append(kept, p)
		}
	}
	room.Players = kept
	for i := range room.Players {
		room.Players[i].Position = i + 1
	}

	if len(room.Players) == 0 {
		delete(g.rooms, roomID)
		return roomID, nil
	}
	if room.Status == StatusInProgress && len(room.Players) == 1 {
		room.Status = StatusFinished
	}
	return roomID, room.snapshot()
}

// SetReady marks the connection's player ready. allReady reports
// whether every player in a waiting room of at least two is ready,
// which is the countdown trigger.
func (g *Registry) SetReady(connID string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room := g.roomForConn(connID)
	if room == nil {
		return nil, false
	}
	for i := range room.Players {
		if room.Players[i].ConnID == connID {
			room.Players[i].Ready = true
		}
	}
	if room.Status != StatusWaiting || len(room.Players) < 2 {
		return room.snapshot(), false
	}
	for _, p := range room.Players {
		if !p.Ready {
			return room.snapshot(), false
		}
	}
	return room.snapshot(), true
}

// UpdateProgress records a racer's self-reported progress and metrics,
// re-sorts the field by descending progress and recomputes positions.
// The sort is stable: ties keep their prior relative order. The room
// finishes once all but at most one player have crossed the line.
// justFinished reports the transition into StatusFinished.
func (g *Registry) UpdateProgress(connID string, progress float64, wpm, accuracy int) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room := g.roomForConn(connID)
	if room == nil || room.Status == StatusFinished {
		return nil, false
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	for i := range room.Players {
		if room.Players[i].ConnID == connID {
			room.Players[i].Progress = progress
			room.Players[i].WPM = wpm
			room.Players[i].Accuracy = accuracy
			room.Players[i].Finished = progress >= 100
		}
	}

	sort.SliceStable(room.Players, func(i, j int) bool {
		return room.Players[i].Progress > room.Players[j].Progress
	})
	for i := range room.Players {
		room.Players[i].Position = i + 1
	}

	justFinished := false
	if room.Status == StatusInProgress && room.finishedCount() > 0 &&
		room.finishedCount() >= len(room.Players)-1 {
		room.Status = StatusFinished
		justFinished = true
	}
	return room.snapshot(), justFinished
}

// SetCountdown moves a waiting room into the countdown state.
func (g *Registry) SetCountdown(roomID string, seconds int) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[roomID]
	if !ok || room.Status != StatusWaiting {
		return nil
	}
	room.Status = StatusCountingDown
	room.Countdown = seconds
	return room.snapshot()
}

// TickCountdown decrements a counting-down room's timer.
func (g *Registry) TickCountdown(roomID string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[roomID]
	if !ok || room.Status != StatusCountingDown {
		return nil
	}
	if room.Countdown > 0 {
		room.Countdown--
	}
	return room.snapshot()
}

// Start flips a counting-down room into the race proper, recording
// the authoritative start time. This is the only point at which
// clients may begin accepting race keystrokes.
func (g *Registry) Start(roomID string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[roomID]
	if !ok || room.Status != StatusCountingDown {
		return nil
	}
	now := g.clock()
	room.Status = StatusInProgress
	room.Countdown = 0
	room.StartedAt = &now
	return room.snapshot()
}

// Snapshot returns a copy of one room.
func (g *Registry) Snapshot(roomID string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[roomID]
	if !ok {
		return nil, false
	}
	return room.snapshot(), true
}

// RoomIDForConn returns the room a connection currently occupies.
func (g *Registry) RoomIDForConn(connID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.roomByConn[connID]
	return id, ok
}

// List returns lobby summaries for every room, ordered by name.
func (g *Registry) List() []Summary {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Summary, 0, len(g.rooms))
	for _, room := range g.rooms {
		out = append(out, room.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Shutdown drops all rooms and player mappings.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rooms = make(map[string]*Room)
	g.roomByConn = make(map[string]string)
}

func (g *Registry) roomForConn(connID string) *Room {
	roomID, ok := g.roomByConn[connID]
	if !ok {
		return nil
	}
	return g.rooms[roomID]
}
