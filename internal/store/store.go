// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/spacedog-labs/wikiracer/internal/fault"
	"github.com/spacedog-labs/wikiracer/internal/models"
)

// LobbyStore is a typed accessor over the lobby document collection. It holds
// no business rules: callers get a full record, modify it, and write it back.
// Update enforces the version token and fails with fault.Conflict when the
// record moved underneath the caller.
type LobbyStore interface {
	Get(ctx context.Context, key string) (*models.Lobby, error)
	Add(ctx context.Context, lobby *models.Lobby) error
	Update(ctx context.Context, lobby *models.Lobby) error
	ListOpen(ctx context.Context) ([]*models.Lobby, error)
	Delete(ctx context.Context, key string) error
}

// GameStore is the typed accessor over game documents, keyed by game id.
type GameStore interface {
	Get(ctx context.Context, id string) (*models.Game, error)
	Add(ctx context.Context, game *models.Game) error
	Update(ctx context.Context, game *models.Game) error
}

// ErrNoChange may be returned by a mutate function to signal that the record
// should not be written back; the helper then returns the record as read.
var ErrNoChange = errors.New("store: no change")

// mutateAttempts bounds the compare-and-swap retry loop.
const mutateAttempts = 3

// MutateLobby runs a bounded read-modify-write loop: fetch the lobby, apply
// fn, write it back, and retry from a fresh read when the version check
// fails. Conflicts that survive all attempts surface as fault.Conflict.
func MutateLobby(ctx context.Context, s LobbyStore, key string, fn func(*models.Lobby) error) (*models.Lobby, error) {
	var last error
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		lobby, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if err := fn(lobby); err != nil {
			if errors.Is(err, ErrNoChange) {
				return lobby, nil
			}
			return nil, err
		}
		if err := s.Update(ctx, lobby); err != nil {
			if fault.Is(err, fault.Conflict) {
				last = err
				continue
			}
			return nil, err
		}
		return lobby, nil
	}
	return nil, last
}

// MutateGame is the game-record counterpart of MutateLobby.
func MutateGame(ctx context.Context, s GameStore, id string, fn func(*models.Game) error) (*models.Game, error) {
	var last error
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		game, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(game); err != nil {
			if errors.Is(err, ErrNoChange) {
				return game, nil
			}
			return nil, err
		}
		if err := s.Update(ctx, game); err != nil {
			if fault.Is(err, fault.Conflict) {
				last = err
				continue
			}
			return nil, err
		}
		return game, nil
	}
	return nil, last
}
