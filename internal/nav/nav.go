// internal/nav/nav.go
package nav

import (
	"context"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/fault"
	"github.com/spacedog-labs/wikiracer/internal/models"
	"github.com/spacedog-labs/wikiracer/internal/session"
	"github.com/spacedog-labs/wikiracer/internal/store"
	"github.com/spacedog-labs/wikiracer/internal/wiki"
)

// PageStatistics receives a best-effort view log per resolved article.
type PageStatistics interface {
	LogArticleView(ctx context.Context, title string) error
}

// Service records page-to-page moves during an active session and detects
// when a player reaches the end article.
type Service struct {
	Lobbies store.LobbyStore
	Games   store.GameStore
	Fetcher wiki.Fetcher
	Stats   PageStatistics
	Clock   clockwork.Clock
}

// Navigate resolves targetKey and, when the session is running and the move
// is away from the start article, appends it to the caller's game history.
// Completion is detected strictly by the resolved title matching the lobby's
// end article. Visits to the start article outside a running session are
// allowed but never recorded.
func (s *Service) Navigate(ctx context.Context, lobbyKey string, id auth.Identity, targetKey string) (*wiki.Article, error) {
	now := s.Clock.Now().UTC()

	lobby, err := s.Lobbies.Get(ctx, lobbyKey)
	if err != nil {
		return nil, err
	}
	player := lobby.Player(id.Subject)
	if player == nil {
		return nil, fault.New(fault.Forbidden, "not a member")
	}

	running := session.Running(lobby, now)
	if targetKey != lobby.StartArticle && !running {
		return nil, fault.New(fault.InvalidState, "not started")
	}
	if player.Finished && running {
		return nil, fault.New(fault.InvalidState, "already finished")
	}

	// Moves to the start article are the free pre-race visit; only moves
	// away from it during a running session enter the history.
	record := running && targetKey != lobby.StartArticle

	article, err := s.Fetcher.Fetch(ctx, targetKey)
	if err != nil {
		return nil, err
	}

	isFinished := article.Title == lobby.EndArticle

	if s.Stats != nil {
		if statErr := s.Stats.LogArticleView(ctx, article.Title); statErr != nil {
			log.Warnf("page statistic log failed for %q: %v", article.Title, statErr)
		}
	}

	// The live position updates unconditionally; the finished flag is
	// monotonic until the next session start.
	_, err = store.MutateLobby(ctx, s.Lobbies, lobbyKey, func(l *models.Lobby) error {
		p := l.Player(id.Subject)
		if p == nil {
			return fault.New(fault.Forbidden, "not a member")
		}
		p.CurrentArticle = article.Title
		p.LastUpdate = now
		if isFinished && record && !p.Finished {
			p.Finished = true
			p.FinishedTime = now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if record && lobby.GameID != "" {
		_, err = store.MutateGame(ctx, s.Games, lobby.GameID, func(g *models.Game) error {
			history := g.History(id.Subject)
			if history == nil {
				// Member without a history was not active at start; their
				// moves resolve content but are not part of the race.
				return store.ErrNoChange
			}
			history.Navigations = append(history.Navigations, models.GameNavigation{
				Article:   article.Title,
				Timestamp: now,
			})
			history.Player.CurrentArticle = article.Title
			if isFinished && !history.Player.Finished {
				history.Player.Finished = true
				history.Player.FinishedTime = now
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return article, nil
}
