// internal/session/session.go
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/fault"
	"github.com/spacedog-labs/wikiracer/internal/models"
	"github.com/spacedog-labs/wikiracer/internal/store"
)

// UserDirectory is the slice of the profile store the state machine needs:
// recording game participation on the durable user record.
type UserDirectory interface {
	AppendGameID(ctx context.Context, subject, provider, gameID string) error
}

// Service owns the start/endEarly transitions and game record lifecycle.
type Service struct {
	Lobbies store.LobbyStore
	Games   store.GameStore
	Users   UserDirectory
	Clock   clockwork.Clock
}

// Start creates a new game for the lobby. Each precondition fails with its
// own reason: caller must be owner, no session may be running, the cooldown
// after the previous session must have elapsed, and both articles must be set.
func (s *Service) Start(ctx context.Context, lobbyKey string, caller auth.Identity) (*models.Game, error) {
	now := s.Clock.Now().UTC()

	// Validate against a fresh read first so the profile writes below only
	// happen for a transition that will be accepted.
	lobby, err := s.Lobbies.Get(ctx, lobbyKey)
	if err != nil {
		return nil, err
	}
	if err := validateStart(lobby, caller, now); err != nil {
		return nil, err
	}

	gameID := uuid.NewString()
	game := buildGame(lobby, gameID, now)

	if err := s.Games.Add(ctx, game); err != nil {
		return nil, err
	}

	committed, err := store.MutateLobby(ctx, s.Lobbies, lobbyKey, func(l *models.Lobby) error {
		if err := validateStart(l, caller, now); err != nil {
			return err
		}
		l.GameID = gameID
		l.StartTime = now.Add(LeadIn)
		l.EndTime = now.Add(time.Duration(l.CurrentGameLength) * time.Minute).Add(LeadIn)
		for i := range l.Players {
			if !l.Players[i].Active {
				continue
			}
			l.Players[i].CurrentArticle = l.StartArticle
			l.Players[i].Finished = false
			l.Players[i].FinishedTime = time.Time{}
			l.Players[i].LastUpdate = now
		}
		return nil
	})
	if err != nil {
		// The game record stays orphaned but unreferenced; nothing reads it.
		log.WithFields(log.Fields{"lobby": lobbyKey, "game": gameID}).
			Warnf("start transition failed after game insert: %v", err)
		return nil, err
	}

	// Profile participation is recorded only for the start that won the lobby
	// write, so a lost race never leaves a dangling game id on a profile.
	// Grants at session end key off the game's histories, so a failed append
	// costs a profile its game-list entry, not its reward.
	for i := range committed.Players {
		p := &committed.Players[i]
		if !p.Active {
			continue
		}
		if err := s.Users.AppendGameID(ctx, p.ID, p.AuthProvider, gameID); err != nil {
			log.Warnf("recording game %s on profile %s failed: %v", gameID, p.ID, err)
		}
	}

	return game, nil
}

func validateStart(l *models.Lobby, caller auth.Identity, now time.Time) error {
	if !l.IsOwner(caller.Subject) {
		return fault.New(fault.Forbidden, "not owner")
	}
	if Running(l, now) {
		return fault.New(fault.InvalidState, "game running")
	}
	if !l.EndTime.IsZero() && l.EndTime.Add(Cooldown).After(now) {
		return fault.New(fault.InvalidState, "cooldown")
	}
	if !l.ArticlesSet() {
		return fault.New(fault.InvalidInput, "startfinish")
	}
	return nil
}

// buildGame freezes the game record at the start instant: one history per
// active player, seeded with the start-article visit, and rewards computed
// once from the active count.
func buildGame(l *models.Lobby, gameID string, now time.Time) *models.Game {
	active := l.ActiveCount()
	game := &models.Game{
		ID:               gameID,
		Key:              gameID,
		StartArticle:     l.StartArticle,
		FinishArticle:    l.EndArticle,
		StartTime:        now.Add(LeadIn),
		FinishTime:       now.Add(time.Duration(l.CurrentGameLength) * time.Minute).Add(LeadIn),
		ExperienceReward: ExperienceReward(active),
		CoinReward:       CoinReward(active),
	}

	for i := range l.Players {
		p := l.Players[i]
		if !p.Active {
			continue
		}
		p.CurrentArticle = l.StartArticle
		p.Finished = false
		p.FinishedTime = time.Time{}
		game.GameHistories = append(game.GameHistories, models.GameHistory{
			Player: p,
			Navigations: []models.GameNavigation{
				{Article: l.StartArticle, Timestamp: now},
			},
		})
	}
	return game
}

// EndEarly closes the active window now. Owner-only, and only once every
// active player's completion flag is set.
func (s *Service) EndEarly(ctx context.Context, lobbyKey string, caller auth.Identity) error {
	now := s.Clock.Now().UTC()

	lobby, err := store.MutateLobby(ctx, s.Lobbies, lobbyKey, func(l *models.Lobby) error {
		if !l.IsOwner(caller.Subject) {
			return fault.New(fault.Forbidden, "not owner")
		}
		if l.GameID == "" {
			return fault.New(fault.InvalidState, "not started")
		}
		// Once the window has closed the session is over; moving EndTime
		// forward again would restart the cooldown.
		if !Running(l, now) {
			return fault.New(fault.InvalidState, "already finished")
		}
		if l.FinishedCount() < l.ActiveCount() {
			return fault.New(fault.InvalidState, "not all players finished")
		}
		l.EndTime = now
		return nil
	})
	if err != nil {
		return err
	}

	_, err = store.MutateGame(ctx, s.Games, lobby.GameID, func(g *models.Game) error {
		g.FinishTime = now
		return nil
	})
	return err
}
