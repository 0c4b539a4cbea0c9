// internal/syncer/loop.go
package syncer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/spacedog-labs/wikiracer/internal/fault"
	"github.com/spacedog-labs/wikiracer/internal/models"
	"github.com/spacedog-labs/wikiracer/internal/session"
	"github.com/spacedog-labs/wikiracer/internal/store"
)

// DefaultInterval is how often open lobbies are re-evaluated.
const DefaultInterval = 3 * time.Second

// DefaultStaleAfter is the idle threshold after which an inactive lobby's
// player loses the active flag for the next session.
const DefaultStaleAfter = 90 * time.Second

// Broadcaster is the push channel keyed by lobby. Delivery guarantees are the
// transport's concern.
type Broadcaster interface {
	Publish(lobbyKey string, payload interface{})
}

// RewardGranter applies a game's frozen rewards to a durable profile.
type RewardGranter interface {
	GrantReward(ctx context.Context, subject, provider string, experience, coins int) error
}

// Loop is the single place where "time has passed" side effects happen:
// marking games finished once their end time passes, issuing rewards exactly
// once, dropping stale active flags, and pushing state deltas to clients.
// Request handlers only react to explicit player actions.
type Loop struct {
	Lobbies    store.LobbyStore
	Games      store.GameStore
	Users      RewardGranter
	Hub        Broadcaster
	Clock      clockwork.Clock
	Interval   time.Duration
	StaleAfter time.Duration

	// prev holds the last delivered snapshot fingerprint per lobby key.
	prev map[string]string
}

// Run ticks until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := l.Clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			l.tick(ctx)
		}
	}
}

// tick is one full pass: reconcile every open lobby, then deliver deltas.
func (l *Loop) tick(ctx context.Context) {
	now := l.Clock.Now().UTC()

	lobbies, err := l.Lobbies.ListOpen(ctx)
	if err != nil {
		log.Warnf("sync: listing open lobbies failed: %v", err)
		return
	}

	if l.prev == nil {
		l.prev = make(map[string]string)
	}
	seen := make(map[string]struct{}, len(lobbies))

	for _, lobby := range lobbies {
		seen[lobby.Key] = struct{}{}

		game := l.loadGame(ctx, lobby)
		game = l.finalizeIfEnded(ctx, lobby, game, now)
		lobby = l.dropStalePlayers(ctx, lobby, now)

		snap := Evaluate(lobby, game, now)
		l.deliver(lobby.Key, snap)
	}

	// Forget lobbies that are no longer open so a reopened key is re-pushed.
	for key := range l.prev {
		if _, ok := seen[key]; !ok {
			delete(l.prev, key)
		}
	}
}

func (l *Loop) loadGame(ctx context.Context, lobby *models.Lobby) *models.Game {
	if lobby.GameID == "" {
		return nil
	}
	game, err := l.Games.Get(ctx, lobby.GameID)
	if err != nil {
		if !fault.Is(err, fault.NotFound) {
			log.Warnf("sync: loading game %s failed: %v", lobby.GameID, err)
		}
		return nil
	}
	return game
}

// finalizeIfEnded marks a game finished once its end time has passed and
// issues rewards. The CAS on the game record makes the transition fire
// exactly once even with multiple loop instances.
func (l *Loop) finalizeIfEnded(ctx context.Context, lobby *models.Lobby, game *models.Game, now time.Time) *models.Game {
	if game == nil || game.Finished || !now.After(lobby.EndTime) {
		return game
	}

	won := false
	updated, err := store.MutateGame(ctx, l.Games, game.ID, func(g *models.Game) error {
		if g.Finished {
			return store.ErrNoChange
		}
		g.Finished = true
		g.RewardIssued = true
		won = true
		return nil
	})
	if err != nil {
		log.Warnf("sync: finalizing game %s failed: %v", game.ID, err)
		return game
	}
	if !won {
		return updated
	}

	log.WithFields(log.Fields{"lobby": lobby.Key, "game": updated.ID}).
		Infof("session finished, issuing rewards to %d players", len(updated.GameHistories))
	for i := range updated.GameHistories {
		p := updated.GameHistories[i].Player
		if err := l.Users.GrantReward(ctx, p.ID, p.AuthProvider, updated.ExperienceReward, updated.CoinReward); err != nil {
			log.Warnf("sync: reward grant for %s failed: %v", p.ID, err)
		}
	}
	return updated
}

// dropStalePlayers clears the active flag of players that have gone quiet
// while the lobby is idle, so the next start does not freeze histories for
// players who left their tab open and walked away.
func (l *Loop) dropStalePlayers(ctx context.Context, lobby *models.Lobby, now time.Time) *models.Lobby {
	if session.PhaseOf(lobby, now) != session.PhaseIdle {
		return lobby
	}
	staleAfter := l.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}

	updated, err := store.MutateLobby(ctx, l.Lobbies, lobby.Key, func(lb *models.Lobby) error {
		changed := false
		for i := range lb.Players {
			p := &lb.Players[i]
			if p.Active && now.Sub(p.LastUpdate) > staleAfter {
				p.Active = false
				changed = true
			}
		}
		if !changed {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		log.Warnf("sync: stale cleanup for lobby %s failed: %v", lobby.Key, err)
		return lobby
	}
	return updated
}

// deliver pushes the snapshot only when it differs from the last one sent
// for this lobby, so idle lobbies generate no traffic.
func (l *Loop) deliver(lobbyKey string, snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Warnf("sync: marshaling snapshot for %s failed: %v", lobbyKey, err)
		return
	}
	fingerprint := string(data)
	if l.prev[lobbyKey] == fingerprint {
		return
	}
	l.prev[lobbyKey] = fingerprint
	l.Hub.Publish(lobbyKey, snap)
}
