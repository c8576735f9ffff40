// Package protocol defines the typed websocket message contract
// between race clients and the server.
package protocol

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/typewarrior/typewarrior/internal/race"
)

// Kind tags every message on the wire. The set is closed: unknown
// kinds are rejected at decode time instead of being silently routed.
type Kind string

// Client to server.
const (
	KindRoomCreate     Kind = "room:create"
	KindRoomJoin       Kind = "room:join"
	KindRoomLeave      Kind = "room:leave"
	KindPlayerReady    Kind = "player:ready"
	KindPlayerProgress Kind = "player:progress"
	KindPlayerEmote    Kind = "player:emote"
)

// Server to client.
const (
	KindRoomsList      Kind = "rooms:list"
	KindRoomCreated    Kind = "room:created"
	KindRoomJoined     Kind = "room:joined"
	KindRoomUpdated    Kind = "room:updated"
	KindRoomJoinFailed Kind = "room:join:failed"
	KindRaceCountdown  Kind = "race:countdown"
	KindRaceStart      Kind = "race:start"
	KindRaceFinished   Kind = "race:finished"
	KindRoomEmote      Kind = "room:emote"
)

// Envelope is the single wire frame: a kind tag plus its payload.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateRoomRequest asks the server to create and join a new room.
type CreateRoomRequest struct {
	Name       string       `json:"name" validate:"required,max=64"`
	MaxPlayers int          `json:"maxPlayers" validate:"gte=2,lte=16"`
	Difficulty string       `json:"difficulty" validate:"max=16"`
	Profile    race.Profile `json:"profile"`
}

// JoinRoomRequest asks to join an existing room.
type JoinRoomRequest struct {
	RoomID  string       `json:"roomId" validate:"required"`
	Profile race.Profile `json:"profile"`
}

// ProgressReport carries a racer's self-reported live metrics.
type ProgressReport struct {
	Progress float64 `json:"progress" validate:"gte=0"`
	WPM      int     `json:"wpm" validate:"gte=0"`
	Accuracy int     `json:"accuracy" validate:"gte=0,lte=100"`
}

// EmoteRequest relays a reaction to the room.
type EmoteRequest struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}

// RoomsList is the lobby view broadcast to every client.
type RoomsList struct {
	Rooms []race.Summary `json:"rooms"`
}

// RoomJoined confirms entry into a room, echoing the caller's player.
type RoomJoined struct {
	Room   *race.Room   `json:"room"`
	Player *race.Player `json:"player"`
}

// RoomUpdated carries the authoritative room snapshot. Clients
// overwrite their local mirror wholesale.
type RoomUpdated struct {
	Room *race.Room `json:"room"`
}

// JoinFailed reports a rejected join; the client keeps its local
// state untouched.
type JoinFailed struct {
	Message string `json:"message"`
}

// CountdownTick is one second of the pre-race countdown.
type CountdownTick struct {
	Countdown int `json:"countdown"`
}

// RaceStart authorizes clients to begin accepting race keystrokes.
type RaceStart struct {
	Room *race.Room `json:"room"`
}

// RaceFinished declares the final standings and the winner.
type RaceFinished struct {
	Room   *race.Room  `json:"room"`
	Winner race.Player `json:"winner"`
}

// EmoteBroadcast fans an emote out to the room, sender included.
type EmoteBroadcast struct {
	PlayerID string `json:"playerId"`
	Emoji    string `json:"emoji"`
}

// Encode frames a payload under its kind tag.
func Encode(kind Kind, payload any) ([]byte, error) {
	env := Envelope{Type: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", kind, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// DecodeClient parses and validates an inbound client frame. The
// returned payload is a typed pointer matching the kind, or nil for
// payload-less kinds.
func DecodeClient(data []byte, validate *validator.Validate) (Kind, any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Type {
	case KindRoomCreate:
		return decodePayload[CreateRoomRequest](env, validate)
	case KindRoomJoin:
		return decodePayload[JoinRoomRequest](env, validate)
	case KindPlayerProgress:
		return decodePayload[ProgressReport](env, validate)
	case KindPlayerEmote:
		return decodePayload[EmoteRequest](env, validate)
	case KindRoomLeave, KindPlayerReady:
		return env.Type, nil, nil
	default:
		return "", nil, fmt.Errorf("unknown client message kind %q", env.Type)
	}
}

// DecodeServer parses an inbound server frame on the client side.
func DecodeServer(data []byte) (Kind, any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Type {
	case KindRoomsList:
		return decodePayload[RoomsList](env, nil)
	case KindRoomCreated, KindRoomJoined:
		return decodePayload[RoomJoined](env, nil)
	case KindRoomUpdated:
		return decodePayload[RoomUpdated](env, nil)
	case KindRoomJoinFailed:
		return decodePayload[JoinFailed](env, nil)
	case KindRaceCountdown:
		return decodePayload[CountdownTick](env, nil)
	case KindRaceStart:
		return decodePayload[RaceStart](env, nil)
	case KindRaceFinished:
		return decodePayload[RaceFinished](env, nil)
	case KindRoomEmote:
		return decodePayload[EmoteBroadcast](env, nil)
	default:
		return "", nil, fmt.Errorf("unknown server message kind %q", env.Type)
	}
}

func decodePayload[T any](env Envelope, validate *validator.Validate) (Kind, any, error) {
	var payload T
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return "", nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
	}
	if validate != nil {
		if err := validate.Struct(&payload); err != nil {
			return "", nil, fmt.Errorf("validate %s payload: %w", env.Type, err)
		}
	}
	return env.Type, &payload, nil
}
