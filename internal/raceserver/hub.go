// Package raceserver runs the authoritative multiplayer race server.
package raceserver

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/typewarrior/typewarrior/internal/protocol"
	"github.com/typewarrior/typewarrior/internal/race"
)

const (
	countdownSeconds = 3
	outboxSize       = 64
	// Progress reports above this rate are dropped; the bridge only
	// sends on meaningful change, so sustained bursts are abuse.
	progressPerSecond = 20
	progressBurst     = 40
)

type client struct {
	id      string
	outbox  chan []byte
	limiter *rate.Limiter
}

func newClient(id string) *client {
	return &client{
		id:      id,
		outbox:  make(chan []byte, outboxSize),
		limiter: rate.NewLimiter(rate.Limit(progressPerSecond), progressBurst),
	}
}

// push enqueues a frame without ever blocking the hub loop. A client
// that cannot drain its outbox loses frames, not the whole room.
func (c *client) push(data []byte) {
	select {
	case c.outbox <- data:
	default:
	}
}

type clientRegistered struct{ cli *client }

type clientClosed struct{ cli *client }

type clientEvent struct {
	cli     *client
	kind    protocol.Kind
	payload any
}

type countdownTick struct{ roomID string }

// countdownTask is the one background task a room owns. Its stop
// channel is closed when the room is destroyed mid-countdown.
type countdownTask struct {
	stop chan struct{}
}

// Hub serializes every room mutation through a single event loop, so
// all clients in a room observe broadcasts in the same order.
type Hub struct {
	reg      *race.Registry
	validate *validator.Validate
	log      zerolog.Logger
	archive  *Archive

	events     chan any
	clients    map[string]*client
	countdowns map[string]*countdownTask

	tickEvery time.Duration
}

// Option configures a Hub.
type Option func(*Hub)

// WithCountdownInterval shrinks the countdown tick for tests.
func WithCountdownInterval(d time.Duration) Option {
	return func(h *Hub) { h.tickEvery = d }
}

// WithArchive persists finished races fire-and-forget.
func WithArchive(a *Archive) Option {
	return func(h *Hub) { h.archive = a }
}

// NewHub wires the event loop around a registry.
func NewHub(reg *race.Registry, log zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		reg:        reg,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        log,
		events:     make(chan any, 256),
		clients:    make(map[string]*client),
		countdowns: make(map[string]*countdownTask),
		tickEvery:  time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes events until the context is cancelled, then stops
// every countdown task and drops all rooms.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for id, task := range h.countdowns {
				close(task.stop)
				delete(h.countdowns, id)
			}
			h.reg.Shutdown()
			return
		case ev := <-h.events:
			h.handle(ev)
		}
	}
}

// handle is the single dispatch point for every event kind.
func (h *Hub) handle(ev any) {
	switch ev := ev.(type) {
	case clientRegistered:
		h.clients[ev.cli.id] = ev.cli
		h.send(ev.cli, protocol.KindRoomsList, protocol.RoomsList{Rooms: h.reg.List()})
	case clientClosed:
		h.onLeave(ev.cli)
		delete(h.clients, ev.cli.id)
		close(ev.cli.outbox)
	case clientEvent:
		h.handleClient(ev)
	case countdownTick:
		h.onCountdownTick(ev.roomID)
	}
}

func (h *Hub) handleClient(ev clientEvent) {
	switch ev.kind {
	case protocol.KindRoomCreate:
		h.onCreate(ev.cli, ev.payload.(*protocol.CreateRoomRequest))
	case protocol.KindRoomJoin:
		h.onJoin(ev.cli, ev.payload.(*protocol.JoinRoomRequest))
	case protocol.KindRoomLeave:
		h.onLeave(ev.cli)
	case protocol.KindPlayerReady:
		h.onReady(ev.cli)
	case protocol.KindPlayerProgress:
		h.onProgress(ev.cli, ev.payload.(*protocol.ProgressReport))
	case protocol.KindPlayerEmote:
		h.onEmote(ev.cli, ev.payload.(*protocol.EmoteRequest))
	}
}

func (h *Hub) onCreate(cli *client, req *protocol.CreateRoomRequest) {
	room := h.reg.CreateRoom(req.Name, req.MaxPlayers, req.Difficulty)
	snap, player, err := h.reg.Join(room.ID, cli.id, req.Profile)
	if err != nil {
		// Freshly created rooms are empty; only a racing registry
		// shutdown can get here.
		h.log.Error().Err(err).Str("room", room.ID).Msg("join after create failed")
		return
	}
	h.log.Info().Str("room", snap.ID).Str("name", snap.Name).Msg("room created")
	h.send(cli, protocol.KindRoomCreated, protocol.RoomJoined{Room: snap, Player: player})
	h.broadcastLobby()
}

func (h *Hub) onJoin(cli *client, req *protocol.JoinRoomRequest) {
	snap, player, err := h.reg.Join(req.RoomID, cli.id, req.Profile)
	if err != nil {
		h.send(cli, protocol.KindRoomJoinFailed, protocol.JoinFailed{Message: "Room is full or does not exist"})
		return
	}
	h.send(cli, protocol.KindRoomJoined, protocol.RoomJoined{Room: snap, Player: player})
	h.broadcastRoom(snap, protocol.KindRoomUpdated, protocol.RoomUpdated{Room: snap})
	h.broadcastLobby()
}

func (h *Hub) onLeave(cli *client) {
	roomID, snap := h.reg.Leave(cli.id)
	if roomID == "" {
		return
	}
	if snap == nil {
		// Room destroyed; its countdown dies with it.
		h.stopCountdown(roomID)
	} else {
		h.broadcastRoom(snap, protocol.KindRoomUpdated, protocol.RoomUpdated{Room: snap})
	}
	h.broadcastLobby()
}

func (h *Hub) onReady(cli *client) {
	snap, allReady := h.reg.SetReady(cli.id)
	if snap == nil {
		return
	}
	if allReady {
		if counting := h.reg.SetCountdown(snap.ID, countdownSeconds); counting != nil {
			snap = counting
			h.broadcastRoom(snap, protocol.KindRaceCountdown, protocol.CountdownTick{Countdown: countdownSeconds})
			h.startCountdown(snap.ID)
		}
	}
	h.broadcastRoom(snap, protocol.KindRoomUpdated, protocol.RoomUpdated{Room: snap})
}

func (h *Hub) onProgress(cli *client, report *protocol.ProgressReport) {
	if !cli.limiter.Allow() {
		return
	}
	snap, justFinished := h.reg.UpdateProgress(cli.id, report.Progress, report.WPM, report.Accuracy)
	if snap == nil {
		return
	}
	h.broadcastRoom(snap, protocol.KindRoomUpdated, protocol.RoomUpdated{Room: snap})
	if justFinished {
		winner := snap.Players[0]
		h.log.Info().Str("room", snap.ID).Str("winner", winner.Name).Msg("race finished")
		h.broadcastRoom(snap, protocol.KindRaceFinished, protocol.RaceFinished{Room: snap, Winner: winner})
		if h.archive != nil {
			room := snap
			go func() {
				if err := h.archive.SaveRace(room); err != nil {
					h.log.Error().Err(err).Str("room", room.ID).Msg("archive race failed")
				}
			}()
		}
	}
}

func (h *Hub) onEmote(cli *client, req *protocol.EmoteRequest) {
	roomID, ok := h.reg.RoomIDForConn(cli.id)
	if !ok {
		return
	}
	snap, ok := h.reg.Snapshot(roomID)
	if !ok {
		return
	}
	h.broadcastRoom(snap, protocol.KindRoomEmote, protocol.EmoteBroadcast{PlayerID: cli.id, Emoji: req.Emoji})
}

func (h *Hub) startCountdown(roomID string) {
	if _, exists := h.countdowns[roomID]; exists {
		return
	}
	task := &countdownTask{stop: make(chan struct{})}
	h.countdowns[roomID] = task
	go func() {
		ticker := time.NewTicker(h.tickEvery)
		defer ticker.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-ticker.C:
				h.events <- countdownTick{roomID: roomID}
			}
		}
	}()
}

func (h *Hub) stopCountdown(roomID string) {
	if task, ok := h.countdowns[roomID]; ok {
		close(task.stop)
		delete(h.countdowns, roomID)
	}
}

func (h *Hub) onCountdownTick(roomID string) {
	snap := h.reg.TickCountdown(roomID)
	if snap == nil {
		h.stopCountdown(roomID)
		return
	}
	if snap.Countdown > 0 {
		h.broadcastRoom(snap, protocol.KindRaceCountdown, protocol.CountdownTick{Countdown: snap.Countdown})
		return
	}
	h.stopCountdown(roomID)
	started := h.reg.Start(roomID)
	if started == nil {
		return
	}
	h.log.Info().Str("room", started.ID).Int("players", len(started.Players)).Msg("race started")
	h.broadcastRoom(started, protocol.KindRaceStart, protocol.RaceStart{Room: started})
}

func (h *Hub) send(cli *client, kind protocol.Kind, payload any) {
	data, err := protocol.Encode(kind, payload)
	if err != nil {
		h.log.Error().Err(err).Str("kind", string(kind)).Msg("encode failed")
		return
	}
	cli.push(data)
}

func (h *Hub) broadcastRoom(room *race.Room, kind protocol.Kind, payload any) {
	data, err := protocol.Encode(kind, payload)
	if err != nil {
		h.log.Error().Err(err).Str("kind", string(kind)).Msg("encode failed")
		return
	}
	for _, p := range room.Players {
		if cli, ok := h.clients[p.ConnID]; ok {
			cli.push(data)
		}
	}
}

func (h *Hub) broadcastLobby() {
	data, err := protocol.Encode(protocol.KindRoomsList, protocol.RoomsList{Rooms: h.reg.List()})
	if err != nil {
		h.log.Error().Err(err).Msg("encode lobby failed")
		return
	}
	for _, cli := range h.clients {
		cli.push(data)
	}
}
