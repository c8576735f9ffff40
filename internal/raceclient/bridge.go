// Package raceclient keeps a local mirror of server room state over a
// websocket so the TUI can render races without owning the protocol.
package raceclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/typewarrior/typewarrior/internal/protocol"
	"github.com/typewarrior/typewarrior/internal/race"
)

// Emote is the last reaction seen in the current room.
type Emote struct {
	PlayerID string
	Emoji    string
}

// State is the client-side mirror of what the server last told us. The
// server snapshot is authoritative; room:updated overwrites the room
// wholesale, last write wins.
type State struct {
	Rooms     []race.Summary
	Room      *race.Room
	Self      *race.Player
	Countdown int
	Started   bool
	Finished  bool
	Winner    *race.Player
	JoinError string
	LastEmote *Emote
	Closed    bool
	Err       error
}

// Bridge owns the websocket connection and the state mirror.
type Bridge struct {
	conn *websocket.Conn
	log  zerolog.Logger

	writeMu sync.Mutex

	mu           sync.Mutex
	state        State
	lastProgress float64
	lastWPM      int

	updates chan struct{}
}

// Dial connects to the race server and starts the read loop.
func Dial(ctx context.Context, url string, log zerolog.Logger) (*Bridge, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial race server %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			_ = cerr
		}
	}
	b := &Bridge{
		conn:    conn,
		log:     log,
		updates: make(chan struct{}, 1),
	}
	go b.readLoop()
	return b, nil
}

// Updates signals after every state change. Notifications coalesce;
// read State after each wake-up instead of counting signals.
func (b *Bridge) Updates() <-chan struct{} {
	return b.updates
}

// State returns a copy of the current mirror.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Close sends a close frame and tears down the connection.
func (b *Bridge) Close() error {
	b.writeMu.Lock()
	deadline := time.Now().Add(time.Second)
	if err := b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline); err != nil {
		b.log.Debug().Err(err).Msg("close frame failed")
	}
	b.writeMu.Unlock()
	return b.conn.Close()
}

// CreateRoom asks the server to create a room and seats us in it.
func (b *Bridge) CreateRoom(name string, maxPlayers int, difficulty string, profile race.Profile) error {
	return b.send(protocol.KindRoomCreate, protocol.CreateRoomRequest{
		Name:       name,
		MaxPlayers: maxPlayers,
		Difficulty: difficulty,
		Profile:    profile,
	})
}

// JoinRoom asks to join an existing room.
func (b *Bridge) JoinRoom(roomID string, profile race.Profile) error {
	return b.send(protocol.KindRoomJoin, protocol.JoinRoomRequest{RoomID: roomID, Profile: profile})
}

// LeaveRoom leaves the current room.
func (b *Bridge) LeaveRoom() error {
	b.mu.Lock()
	b.state.Room = nil
	b.state.Self = nil
	b.state.Started = false
	b.state.Finished = false
	b.state.Winner = nil
	b.state.Countdown = 0
	b.lastProgress = 0
	b.lastWPM = 0
	b.mu.Unlock()
	b.notify()
	return b.send(protocol.KindRoomLeave, nil)
}

// Ready marks us ready to race.
func (b *Bridge) Ready() error {
	return b.send(protocol.KindPlayerReady, nil)
}

// SendEmote relays a reaction to the room.
func (b *Bridge) SendEmote(emoji string) error {
	return b.send(protocol.KindPlayerEmote, protocol.EmoteRequest{Emoji: emoji})
}

// ForwardProgress reports live metrics, skipping frames that carry no
// new information: progress must strictly increase or WPM change.
func (b *Bridge) ForwardProgress(progress float64, wpm, accuracy int) error {
	b.mu.Lock()
	if progress <= b.lastProgress && wpm == b.lastWPM {
		b.mu.Unlock()
		return nil
	}
	b.lastProgress = progress
	b.lastWPM = wpm
	b.mu.Unlock()
	return b.send(protocol.KindPlayerProgress, protocol.ProgressReport{
		Progress: progress,
		WPM:      wpm,
		Accuracy: accuracy,
	})
}

func (b *Bridge) send(kind protocol.Kind, payload any) error {
	data, err := protocol.Encode(kind, payload)
	if err != nil {
		return err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

func (b *Bridge) readLoop() {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			b.mu.Lock()
			b.state.Closed = true
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				b.state.Err = err
			}
			b.mu.Unlock()
			b.notify()
			return
		}
		kind, payload, err := protocol.DecodeServer(data)
		if err != nil {
			b.log.Debug().Err(err).Msg("dropping bad server frame")
			continue
		}
		b.apply(kind, payload)
		b.notify()
	}
}

// apply folds one server message into the mirror.
func (b *Bridge) apply(kind protocol.Kind, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch kind {
	case protocol.KindRoomsList:
		b.state.Rooms = payload.(*protocol.RoomsList).Rooms
	case protocol.KindRoomCreated, protocol.KindRoomJoined:
		p := payload.(*protocol.RoomJoined)
		b.state.Room = p.Room
		b.state.Self = p.Player
		b.state.JoinError = ""
		b.state.Countdown = 0
		b.state.Started = false
		b.state.Finished = false
		b.state.Winner = nil
		b.lastProgress = 0
		b.lastWPM = 0
	case protocol.KindRoomUpdated:
		b.setRoom(payload.(*protocol.RoomUpdated).Room)
	case protocol.KindRoomJoinFailed:
		// Rejected joins leave the current room, if any, untouched.
		b.state.JoinError = payload.(*protocol.JoinFailed).Message
	case protocol.KindRaceCountdown:
		b.state.Countdown = payload.(*protocol.CountdownTick).Countdown
	case protocol.KindRaceStart:
		b.setRoom(payload.(*protocol.RaceStart).Room)
		b.state.Started = true
		b.state.Countdown = 0
	case protocol.KindRaceFinished:
		p := payload.(*protocol.RaceFinished)
		b.setRoom(p.Room)
		b.state.Finished = true
		winner := p.Winner
		b.state.Winner = &winner
	case protocol.KindRoomEmote:
		p := payload.(*protocol.EmoteBroadcast)
		b.state.LastEmote = &Emote{PlayerID: p.PlayerID, Emoji: p.Emoji}
	}
}

// setRoom replaces the room snapshot and refreshes our own player row.
func (b *Bridge) setRoom(room *race.Room) {
	b.state.Room = room
	if room == nil || b.state.Self == nil {
		return
	}
	for i := range room.Players {
		if room.Players[i].ConnID == b.state.Self.ConnID {
			b.state.Self = &room.Players[i]
			return
		}
	}
}

func (b *Bridge) notify() {
	select {
	case b.updates <- struct{}{}:
	default:
	}
}
