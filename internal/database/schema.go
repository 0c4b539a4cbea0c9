// internal/database/schema.go
package database

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               uuid PRIMARY KEY,
		subject          text NOT NULL,
		auth_provider    text NOT NULL,
		display_name     text NOT NULL,
		avatar           text NOT NULL DEFAULT 'default.png',
		created_on       timestamptz NOT NULL,
		experience       integer NOT NULL DEFAULT 0,
		coins            integer NOT NULL DEFAULT 0,
		badges           text[] NOT NULL DEFAULT '{}',
		unlocked_avatars text[] NOT NULL DEFAULT '{}',
		game_ids         text[] NOT NULL DEFAULT '{}',
		UNIQUE (subject, auth_provider)
	)`,
	`CREATE TABLE IF NOT EXISTS page_statistics (
		article text PRIMARY KEY,
		views   bigint NOT NULL DEFAULT 0
	)`,
}

// EnsureSchema creates the durable tables if they do not exist yet.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
