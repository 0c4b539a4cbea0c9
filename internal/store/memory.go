// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"github.com/spacedog-labs/wikiracer/internal/fault"
	"github.com/spacedog-labs/wikiracer/internal/models"
)

// MemoryLobbyStore keeps lobby documents in memory. It applies the same
// version discipline as the redis store, so tests exercise the real CAS path.
type MemoryLobbyStore struct {
	mu      sync.Mutex
	lobbies map[string]*models.Lobby
}

// NewMemoryLobbyStore returns an in-memory store for lobbies.
func NewMemoryLobbyStore() *MemoryLobbyStore {
	return &MemoryLobbyStore{lobbies: make(map[string]*models.Lobby)}
}

func (s *MemoryLobbyStore) Get(ctx context.Context, key string) (*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[key]
	if !ok {
		return nil, fault.New(fault.NotFound, "lobby not found")
	}
	return l.Clone(), nil
}

func (s *MemoryLobbyStore) Add(ctx context.Context, lobby *models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.lobbies[lobby.Key]; exists {
		return fault.New(fault.Conflict, "lobby key already exists")
	}
	s.lobbies[lobby.Key] = lobby.Clone()
	return nil
}

func (s *MemoryLobbyStore) Update(ctx context.Context, lobby *models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.lobbies[lobby.Key]
	if !ok {
		return fault.New(fault.NotFound, "lobby not found")
	}
	if stored.Version != lobby.Version {
		return fault.New(fault.Conflict, "lobby version conflict")
	}
	next := lobby.Clone()
	next.Version++
	s.lobbies[lobby.Key] = next
	lobby.Version = next.Version
	return nil
}

func (s *MemoryLobbyStore) ListOpen(ctx context.Context) ([]*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Lobby
	for _, l := range s.lobbies {
		if l.IsOpen {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (s *MemoryLobbyStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, key)
	return nil
}

// MemoryGameStore keeps game documents in memory with version checks.
type MemoryGameStore struct {
	mu    sync.Mutex
	games map[string]*models.Game
}

// NewMemoryGameStore returns an in-memory store for games.
func NewMemoryGameStore() *MemoryGameStore {
	return &MemoryGameStore{games: make(map[string]*models.Game)}
}

func (s *MemoryGameStore) Get(ctx context.Context, id string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, fault.New(fault.NotFound, "game not found")
	}
	return g.Clone(), nil
}

func (s *MemoryGameStore) Add(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[game.ID]; exists {
		return fault.New(fault.Conflict, "game id already exists")
	}
	s.games[game.ID] = game.Clone()
	return nil
}

func (s *MemoryGameStore) Update(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.games[game.ID]
	if !ok {
		return fault.New(fault.NotFound, "game not found")
	}
	if stored.Version != game.Version {
		return fault.New(fault.Conflict, "game version conflict")
	}
	next := game.Clone()
	next.Version++
	s.games[game.ID] = next
	game.Version = next.Version
	return nil
}
