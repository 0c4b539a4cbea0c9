// internal/database/db.go
package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo wraps the pgx pool for the durable tables: user profiles and
// per-article view counters. Lobby and game documents live in the document
// store, not here.
type Repo struct {
	pool *pgxpool.Pool
}

// Connect creates the pool and verifies connectivity.
func Connect(ctx context.Context, connStr string) (*Repo, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Repo{pool: pool}, nil
}

// Close releases the pool.
func (r *Repo) Close() {
	r.pool.Close()
}
