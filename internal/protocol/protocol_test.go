package protocol

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typewarrior/typewarrior/internal/race"
)

func TestDecodeClientCreateRoom(t *testing.T) {
	v := validator.New(validator.WithRequiredStructEnabled())
	data, err := Encode(KindRoomCreate, CreateRoomRequest{
		Name:       "Quick Race",
		MaxPlayers: 4,
		Difficulty: "Medium",
		Profile:    race.Profile{Name: "ada", Avatar: "🚀"},
	})
	require.NoError(t, err)

	kind, payload, err := DecodeClient(data, v)
	require.NoError(t, err)
	assert.Equal(t, KindRoomCreate, kind)
	req, ok := payload.(*CreateRoomRequest)
	require.True(t, ok)
	assert.Equal(t, "Quick Race", req.Name)
	assert.Equal(t, "ada", req.Profile.Name)
}

func TestDecodeClientValidates(t *testing.T) {
	v := validator.New(validator.WithRequiredStructEnabled())

	data, err := Encode(KindRoomCreate, CreateRoomRequest{Name: "", MaxPlayers: 4})
	require.NoError(t, err)
	_, _, err = DecodeClient(data, v)
	assert.Error(t, err, "missing room name must be rejected")

	data, err = Encode(KindRoomJoin, JoinRoomRequest{})
	require.NoError(t, err)
	_, _, err = DecodeClient(data, v)
	assert.Error(t, err, "missing room id must be rejected")
}

func TestDecodeClientPayloadlessKinds(t *testing.T) {
	v := validator.New(validator.WithRequiredStructEnabled())
	for _, kind := range []Kind{KindRoomLeave, KindPlayerReady} {
		data, err := Encode(kind, nil)
		require.NoError(t, err)
		got, payload, err := DecodeClient(data, v)
		require.NoError(t, err)
		assert.Equal(t, kind, got)
		assert.Nil(t, payload)
	}
}

func TestDecodeClientRejectsUnknownKind(t *testing.T) {
	v := validator.New(validator.WithRequiredStructEnabled())
	_, _, err := DecodeClient([]byte(`{"type":"room:hijack"}`), v)
	assert.Error(t, err)

	// Server-only kinds are not valid inbound traffic either.
	data, err := Encode(KindRoomUpdated, RoomUpdated{})
	require.NoError(t, err)
	_, _, err = DecodeClient(data, v)
	assert.Error(t, err)
}

func TestDecodeServerRoomUpdated(t *testing.T) {
	room := &race.Room{
		ID:     "room-1",
		Name:   "r",
		Status: race.StatusInProgress,
		Players: []race.Player{
			{ConnID: "c1", Name: "ada", Position: 1, Progress: 61.5},
		},
	}
	data, err := Encode(KindRoomUpdated, RoomUpdated{Room: room})
	require.NoError(t, err)

	kind, payload, err := DecodeServer(data)
	require.NoError(t, err)
	assert.Equal(t, KindRoomUpdated, kind)
	upd, ok := payload.(*RoomUpdated)
	require.True(t, ok)
	require.NotNil(t, upd.Room)
	assert.Equal(t, "room-1", upd.Room.ID)
	assert.Equal(t, 61.5, upd.Room.Players[0].Progress)
}

func TestDecodeServerCountdownAndFinish(t *testing.T) {
	data, err := Encode(KindRaceCountdown, CountdownTick{Countdown: 3})
	require.NoError(t, err)
	kind, payload, err := DecodeServer(data)
	require.NoError(t, err)
	assert.Equal(t, KindRaceCountdown, kind)
	assert.Equal(t, 3, payload.(*CountdownTick).Countdown)

	winner := race.Player{ConnID: "c1", Name: "ada", Progress: 100, Finished: true}
	data, err = Encode(KindRaceFinished, RaceFinished{Room: &race.Room{ID: "r"}, Winner: winner})
	require.NoError(t, err)
	kind, payload, err = DecodeServer(data)
	require.NoError(t, err)
	assert.Equal(t, KindRaceFinished, kind)
	assert.Equal(t, "ada", payload.(*RaceFinished).Winner.Name)
}

func TestDecodeServerRejectsGarbage(t *testing.T) {
	_, _, err := DecodeServer([]byte("not json"))
	assert.Error(t, err)
	_, _, err = DecodeServer([]byte(`{"type":"player:progress"}`))
	assert.Error(t, err, "client-only kinds are not valid server traffic")
}
