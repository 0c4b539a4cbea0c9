// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spacedog-labs/wikiracer/internal/fault"
	"github.com/spacedog-labs/wikiracer/internal/models"
)

const (
	lobbyKeyPrefix = "wikiracer:lobby:"
	gameKeyPrefix  = "wikiracer:game:"
	openLobbySet   = "wikiracer:lobbies:open"
)

// ConnectRedis initializes a Redis client and verifies connectivity.
func ConnectRedis(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisLobbyStore stores each lobby as one JSON document under
// wikiracer:lobby:<KEY>, with an index set of open lobby keys. Updates run
// under WATCH so a concurrent writer fails the transaction instead of being
// silently overwritten.
type RedisLobbyStore struct {
	rdb *redis.Client
}

// NewRedisLobbyStore wraps an existing client.
func NewRedisLobbyStore(rdb *redis.Client) *RedisLobbyStore {
	return &RedisLobbyStore{rdb: rdb}
}

func lobbyDocKey(key string) string { return lobbyKeyPrefix + key }

func (s *RedisLobbyStore) Get(ctx context.Context, key string) (*models.Lobby, error) {
	raw, err := s.rdb.Get(ctx, lobbyDocKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fault.New(fault.NotFound, "lobby not found")
	}
	if err != nil {
		return nil, fault.Wrap(fault.Upstream, "lobby store read failed", err)
	}
	var lobby models.Lobby
	if err := json.Unmarshal(raw, &lobby); err != nil {
		return nil, fault.Wrap(fault.Upstream, "lobby record corrupt", err)
	}
	return &lobby, nil
}

func (s *RedisLobbyStore) Add(ctx context.Context, lobby *models.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return fmt.Errorf("failed to marshal lobby: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, lobbyDocKey(lobby.Key), data, 0).Result()
	if err != nil {
		return fault.Wrap(fault.Upstream, "lobby store write failed", err)
	}
	if !ok {
		return fault.New(fault.Conflict, "lobby key already exists")
	}
	if lobby.IsOpen {
		if err := s.rdb.SAdd(ctx, openLobbySet, lobby.Key).Err(); err != nil {
			return fault.Wrap(fault.Upstream, "lobby index write failed", err)
		}
	}
	return nil
}

func (s *RedisLobbyStore) Update(ctx context.Context, lobby *models.Lobby) error {
	docKey := lobbyDocKey(lobby.Key)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, docKey).Bytes()
		if errors.Is(err, redis.Nil) {
			return fault.New(fault.NotFound, "lobby not found")
		}
		if err != nil {
			return fault.Wrap(fault.Upstream, "lobby store read failed", err)
		}
		var stored models.Lobby
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fault.Wrap(fault.Upstream, "lobby record corrupt", err)
		}
		if stored.Version != lobby.Version {
			return fault.New(fault.Conflict, "lobby version conflict")
		}

		next := lobby.Clone()
		next.Version++
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal lobby: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, docKey, data, 0)
			if next.IsOpen {
				pipe.SAdd(ctx, openLobbySet, next.Key)
			} else {
				pipe.SRem(ctx, openLobbySet, next.Key)
			}
			return nil
		})
		if err == nil {
			lobby.Version = next.Version
		}
		return err
	}, docKey)

	if errors.Is(err, redis.TxFailedErr) {
		return fault.Wrap(fault.Conflict, "lobby version conflict", err)
	}
	return err
}

func (s *RedisLobbyStore) ListOpen(ctx context.Context) ([]*models.Lobby, error) {
	keys, err := s.rdb.SMembers(ctx, openLobbySet).Result()
	if err != nil {
		return nil, fault.Wrap(fault.Upstream, "lobby index read failed", err)
	}
	lobbies := make([]*models.Lobby, 0, len(keys))
	for _, key := range keys {
		lobby, err := s.Get(ctx, key)
		if fault.Is(err, fault.NotFound) {
			// Index entry outlived its document. Drop it.
			s.rdb.SRem(ctx, openLobbySet, key)
			continue
		}
		if err != nil {
			return nil, err
		}
		lobbies = append(lobbies, lobby)
	}
	return lobbies, nil
}

func (s *RedisLobbyStore) Delete(ctx context.Context, key string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, lobbyDocKey(key))
	pipe.SRem(ctx, openLobbySet, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fault.Wrap(fault.Upstream, "lobby delete failed", err)
	}
	return nil
}

// RedisGameStore stores each game as one JSON document under
// wikiracer:game:<ID>. Games are never deleted.
type RedisGameStore struct {
	rdb *redis.Client
}

// NewRedisGameStore wraps an existing client.
func NewRedisGameStore(rdb *redis.Client) *RedisGameStore {
	return &RedisGameStore{rdb: rdb}
}

func gameDocKey(id string) string { return gameKeyPrefix + id }

func (s *RedisGameStore) Get(ctx context.Context, id string) (*models.Game, error) {
	raw, err := s.rdb.Get(ctx, gameDocKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fault.New(fault.NotFound, "game not found")
	}
	if err != nil {
		return nil, fault.Wrap(fault.Upstream, "game store read failed", err)
	}
	var game models.Game
	if err := json.Unmarshal(raw, &game); err != nil {
		return nil, fault.Wrap(fault.Upstream, "game record corrupt", err)
	}
	return &game, nil
}

func (s *RedisGameStore) Add(ctx context.Context, game *models.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, gameDocKey(game.ID), data, 0).Result()
	if err != nil {
		return fault.Wrap(fault.Upstream, "game store write failed", err)
	}
	if !ok {
		return fault.New(fault.Conflict, "game id already exists")
	}
	return nil
}

func (s *RedisGameStore) Update(ctx context.Context, game *models.Game) error {
	docKey := gameDocKey(game.ID)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, docKey).Bytes()
		if errors.Is(err, redis.Nil) {
			return fault.New(fault.NotFound, "game not found")
		}
		if err != nil {
			return fault.Wrap(fault.Upstream, "game store read failed", err)
		}
		var stored models.Game
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fault.Wrap(fault.Upstream, "game record corrupt", err)
		}
		if stored.Version != game.Version {
			return fault.New(fault.Conflict, "game version conflict")
		}

		next := game.Clone()
		next.Version++
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, docKey, data, 0)
			return nil
		})
		if err == nil {
			game.Version = next.Version
		}
		return err
	}, docKey)

	if errors.Is(err, redis.TxFailedErr) {
		return fault.Wrap(fault.Conflict, "game version conflict", err)
	}
	return err
}
