package raceserver

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/typewarrior/typewarrior/internal/race"
)

const racePrefix = "race"

// ArchivedRace is the stored record of one finished race.
type ArchivedRace struct {
	RoomID     string        `msgpack:"room_id"`
	Name       string        `msgpack:"name"`
	Difficulty string        `msgpack:"difficulty"`
	Winner     string        `msgpack:"winner"`
	FinishedAt time.Time     `msgpack:"finished_at"`
	Players    []race.Player `msgpack:"players"`
}

// Archive persists finished races to a local badger database. Writes
// are fire-and-forget from the hub's perspective; a failed write is
// logged and never touches room state.
type Archive struct {
	db *badger.DB
}

// OpenArchive opens or creates the archive at dir.
func OpenArchive(dir string) (*Archive, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open race archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) buildKey(roomID string) []byte {
	return []byte(fmt.Sprintf("%s/%s", racePrefix, roomID))
}

// SaveRace records a finished room's final standings.
func (a *Archive) SaveRace(room *race.Room) error {
	if len(room.Players) == 0 {
		return fmt.Errorf("race %s has no players to archive", room.ID)
	}
	record := ArchivedRace{
		RoomID:     room.ID,
		Name:       room.Name,
		Difficulty: room.Difficulty,
		Winner:     room.Players[0].Name,
		FinishedAt: time.Now(),
		Players:    room.Players,
	}
	value, err := msgpack.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal race record: %w", err)
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(a.buildKey(room.ID), value)
	})
}

// ListRaces returns every archived race.
func (a *Archive) ListRaces() ([]ArchivedRace, error) {
	var out []ArchivedRace
	err := a.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(racePrefix + "/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record ArchivedRace
				if err := msgpack.Unmarshal(val, &record); err != nil {
					return fmt.Errorf("unmarshal race record: %w", err)
				}
				out = append(out, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
