// internal/database/user.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spacedog-labs/wikiracer/internal/fault"
	"github.com/spacedog-labs/wikiracer/internal/models"
)

// experiencePerLevel drives the derived level: level 1 at 0 xp, +1 per 100 xp.
const experiencePerLevel = 100

const userColumns = `id, subject, auth_provider, display_name, avatar, created_on,
	experience, coins, badges, unlocked_avatars, game_ids`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Key, &u.AuthProvider, &u.DisplayName, &u.Avatar, &u.CreatedOn,
		&u.Experience, &u.Coins, &u.Badges, &u.UnlockedAvatars, &u.GameIDs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.New(fault.NotFound, "user not found")
	}
	if err != nil {
		return nil, fault.Wrap(fault.Upstream, "user read failed", err)
	}
	u.Level = 1 + u.Experience/experiencePerLevel
	return &u, nil
}

// Get fetches a user by identity pair (subject, provider).
func (r *Repo) Get(ctx context.Context, subject, provider string) (*models.User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE subject=$1 AND auth_provider=$2`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, q, subject, provider))
}

// Create inserts a fresh profile with starter fields.
func (r *Repo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedOn.IsZero() {
		user.CreatedOn = time.Now().UTC()
	}
	user.Level = 1 + user.Experience/experiencePerLevel

	q := `INSERT INTO users (id, subject, auth_provider, display_name, avatar, created_on,
	        experience, coins, badges, unlocked_avatars, game_ids)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			user.ID, user.Key, user.AuthProvider, user.DisplayName, user.Avatar, user.CreatedOn,
			user.Experience, user.Coins, user.Badges, user.UnlockedAvatars, user.GameIDs,
		)
		return execErr
	})
	if err != nil {
		return fault.Wrap(fault.Upstream, "failed to insert user", err)
	}
	return nil
}

// Resolve fetches the profile for an identity pair, initializing a starter
// profile on first sight the way the login flow does.
func (r *Repo) Resolve(ctx context.Context, subject, provider, displayName string) (*models.User, error) {
	user, err := r.Get(ctx, subject, provider)
	if err == nil {
		return user, nil
	}
	if !fault.Is(err, fault.NotFound) {
		return nil, err
	}

	user = &models.User{
		ID:              uuid.NewString(),
		Key:             subject,
		AuthProvider:    provider,
		DisplayName:     displayName,
		Avatar:          "default.png",
		CreatedOn:       time.Now().UTC(),
		Badges:          []string{"beta"},
		UnlockedAvatars: []string{"default.png"},
		GameIDs:         []string{},
	}
	if err := r.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetAvatar swaps the active avatar; the caller checks the unlock list.
func (r *Repo) SetAvatar(ctx context.Context, subject, provider, avatar string) error {
	q := `UPDATE users SET avatar=$1 WHERE subject=$2 AND auth_provider=$3`
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, avatar, subject, provider)
		return err
	})
}

// AppendGameID records participation in a game on the player's profile.
func (r *Repo) AppendGameID(ctx context.Context, subject, provider, gameID string) error {
	q := `UPDATE users SET game_ids = array_append(game_ids, $1)
	      WHERE subject=$2 AND auth_provider=$3`
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, gameID, subject, provider)
		return execErr
	})
	if err != nil {
		return fault.Wrap(fault.Upstream, "failed to append game id", err)
	}
	return nil
}

// GrantReward adds experience and coins in a single statement so concurrent
// grants for different games never lose an increment.
func (r *Repo) GrantReward(ctx context.Context, subject, provider string, experience, coins int) error {
	q := `UPDATE users SET experience = experience + $1, coins = coins + $2
	      WHERE subject=$3 AND auth_provider=$4`
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, experience, coins, subject, provider)
		return execErr
	})
	if err != nil {
		return fault.Wrap(fault.Upstream, "failed to grant reward", err)
	}
	return nil
}
