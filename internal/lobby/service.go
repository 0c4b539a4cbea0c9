// internal/lobby/service.go
package lobby

import (
	"context"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/fault"
	"github.com/spacedog-labs/wikiracer/internal/models"
	"github.com/spacedog-labs/wikiracer/internal/profanity"
	"github.com/spacedog-labs/wikiracer/internal/session"
	"github.com/spacedog-labs/wikiracer/internal/store"
)

// Game length and visibility defaults for a new lobby.
const (
	defaultGameLength = 4
	maxGameLength     = 15
	maxMessageLength  = 144
	publicPageSize    = 10
	keyAttempts       = 10
	topArticleCount   = 100
)

// UserDirectory is the slice of the profile store membership needs.
type UserDirectory interface {
	Resolve(ctx context.Context, subject, provider, displayName string) (*models.User, error)
	TopArticles(ctx context.Context, limit int) ([]string, error)
}

// Service owns lobby membership and access control. Every mutation is a full
// read-modify-write of the lobby record through the store's CAS loop.
type Service struct {
	Lobbies store.LobbyStore
	Games   store.GameStore
	Users   UserDirectory
	Filter  profanity.Filter
	Clock   clockwork.Clock
}

// Create builds a lobby owned by the caller, with the owner as its first
// member and a random start/end pair drawn from the most-viewed articles.
func (s *Service) Create(ctx context.Context, id auth.Identity) (*models.Lobby, error) {
	user, err := s.Users.Resolve(ctx, id.Subject, id.Provider.String(), id.DisplayName)
	if err != nil {
		return nil, err
	}

	owner := user.LobbyPlayer()
	owner.LastUpdate = s.Clock.Now().UTC()

	lobby := &models.Lobby{
		ID:                uuid.NewString(),
		Owner:             models.Owner{ID: user.Key, AuthProvider: user.AuthProvider},
		Players:           []models.LobbyPlayer{owner},
		BanList:           []string{},
		Messages:          []models.Message{},
		IsPublic:          false,
		IsOpen:            true,
		CurrentGameLength: defaultGameLength,
	}
	lobby.StartArticle, lobby.EndArticle = s.randomArticlePair(ctx)

	for attempt := 0; attempt < keyAttempts; attempt++ {
		lobby.Key = generateJoinKey()
		err := s.Lobbies.Add(ctx, lobby)
		if fault.Is(err, fault.Conflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return lobby, nil
	}
	return nil, fault.New(fault.Upstream, "could not allocate a unique lobby key")
}

// randomArticlePair picks two distinct seeds from the popular-articles list.
// An empty or tiny list leaves the pair unset; the owner chooses manually.
func (s *Service) randomArticlePair(ctx context.Context) (string, string) {
	top, err := s.Users.TopArticles(ctx, topArticleCount)
	if err != nil || len(top) < 2 {
		return "", ""
	}
	start := rand.Intn(len(top))
	finish := rand.Intn(len(top) - 1)
	if finish >= start {
		finish++
	}
	return top[start], top[finish]
}

// Join adds the caller to the lobby. Idempotent: an existing member gets the
// current lobby back unchanged. Banned users are rejected.
func (s *Service) Join(ctx context.Context, lobbyKey string, id auth.Identity) (*models.Lobby, error) {
	user, err := s.Users.Resolve(ctx, id.Subject, id.Provider.String(), id.DisplayName)
	if err != nil {
		return nil, err
	}

	return store.MutateLobby(ctx, s.Lobbies, lobbyKey, func(l *models.Lobby) error {
		if l.HasPlayer(user.Key) {
			return store.ErrNoChange
		}
		if l.IsBanned(user.Key) {
			return fault.New(fault.Forbidden, "banned")
		}
		player := user.LobbyPlayer()
		player.LastUpdate = s.Clock.Now().UTC()
		l.Players = append(l.Players, player)
		return nil
	})
}

// Leave removes a member. The lobby closes when its owner leaves, and an
// emptied lobby is deleted outright.
func (s *Service) Leave(ctx context.Context, lobbyKey, playerID string) error {
	lobby, err := store.MutateLobby(ctx, s.Lobbies, lobbyKey, func(l *models.Lobby) error {
		if !l.HasPlayer(playerID) {
			return store.ErrNoChange
		}
		removePlayer(l, playerID)
		if l.IsOwner(playerID) {
			l.IsOpen = false
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(lobby.Players) == 0 {
		return s.Lobbies.Delete(ctx, lobbyKey)
	}
	return nil
}

// Ban is owner-only. It adds the target to the ban list and removes any
// existing membership. Idempotent.
func (s *Service) Ban(ctx context.Context, lobbyKey, targetID string, caller auth.Identity) error {
	_, err := store.MutateLobby(ctx, s.Lobbies, lobbyKey, func(l *models.Lobby) error {
		if !l.IsOwner(caller.Subject) {
			return fault.New(fault.Forbidden, "not owner")
		}
		if l.IsBanned(targetID) && !l.HasPlayer(targetID) {
			return store.ErrNoChange
		}
		if !l.IsBanned(targetID) {
			l.BanList = append(l.BanList, targetID)
		}
		removePlayer(l, targetID)
		return nil
	})
	return err
}

// SetActive toggles whether the caller participates in the next session.
// Rejected while a session is running, since the history set is frozen at start.
func (s *Service) SetActive(ctx context.Context, lobbyKey string, id auth.Identity, active bool) error {
	now := s.Clock.Now().UTC()
	_, err := store.MutateLobby(ctx, s.Lobbies, lobbyKey, func(l *models.Lobby) error {
		player := l.Player(id.Subject)
		if player == nil {
			return fault.New(fault.Forbidden, "not a member")
		}
		if session.Running(l, now) {
			return fault.New(fault.InvalidState, "game running")
		}
		if player.Active == active {
			return store.ErrNoChange
		}
		player.Active = active
		player.LastUpdate = now
		return nil
	})
	return err
}

// SetArticles sets the race endpoints and requested length. Owner-only,
// rejected while a session is running.
func (s *Service) SetArticles(ctx context.Context, lobbyKey string, caller auth.Identity, start, finish string, gameLength int) error {
	now := s.Clock.Now().UTC()
	_, err := store.MutateLobby(ctx, s.Lobbies, lobbyKey, func(l *models.Lobby) error {
		if !l.IsOwner(caller.Subject) {
			return fault.New(fault.Forbidden, "not owner")
		}
		if session.Running(l, now) {
			return fault.New(fault.InvalidState, "game running")
		}
		if gameLength < 0 || gameLength > maxGameLength {
			return fault.New(fault.InvalidInput, "bad game length")
		}
		l.StartArticle = start
		l.EndArticle = finish
		l.CurrentGameLength = gameLength
		return nil
	})
	return err
}

// SetPublic flips visibility. Owner-only, rejected while a session is running.
func (s *Service) SetPublic(ctx context.Context, lobbyKey string, caller auth.Identity, isPublic bool) error {
	now := s.Clock.Now().UTC()
	_, err := store.MutateLobby(ctx, s.Lobbies, lobbyKey, func(l *models.Lobby) error {
		if !l.IsOwner(caller.Subject) {
			return fault.New(fault.Forbidden, "not owner")
		}
		if session.Running(l, now) {
			return fault.New(fault.InvalidState, "game running")
		}
		if l.IsPublic == isPublic {
			return store.ErrNoChange
		}
		l.IsPublic = isPublic
		return nil
	})
	return err
}

// OwnerCanEdit gates owner-only settings operations that are forbidden while
// a session is running, such as the topic search.
func (s *Service) OwnerCanEdit(ctx context.Context, lobbyKey string, caller auth.Identity) error {
	lobby, err := s.Lobbies.Get(ctx, lobbyKey)
	if err != nil {
		return err
	}
	if !lobby.IsOwner(caller.Subject) {
		return fault.New(fault.Forbidden, "not owner")
	}
	if session.Running(lobby, s.Clock.Now().UTC()) {
		return fault.New(fault.InvalidState, "game running")
	}
	return nil
}

// PostMessage validates and appends a chat message. The author field is the
// caller's membership snapshot.
func (s *Service) PostMessage(ctx context.Context, lobbyKey string, id auth.Identity, text string) (*models.Message, error) {
	if len(text) > maxMessageLength {
		return nil, fault.New(fault.InvalidInput, "length")
	}
	if s.Filter.ContainsProfanity(text) {
		return nil, fault.New(fault.InvalidInput, "profanity")
	}

	var msg models.Message
	_, err := store.MutateLobby(ctx, s.Lobbies, lobbyKey, func(l *models.Lobby) error {
		player := l.Player(id.Subject)
		if player == nil {
			return fault.New(fault.Forbidden, "not a member")
		}
		msg = models.Message{
			ID:     uuid.NewString(),
			Author: *player,
			Text:   text,
		}
		l.Messages = append(l.Messages, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CurrentGame returns the lobby's active/most-recent game to a member.
func (s *Service) CurrentGame(ctx context.Context, lobbyKey string, id auth.Identity) (*models.Game, error) {
	lobby, err := s.Lobbies.Get(ctx, lobbyKey)
	if err != nil {
		return nil, err
	}
	if !lobby.HasPlayer(id.Subject) {
		return nil, fault.New(fault.Forbidden, "not a member")
	}
	if lobby.GameID == "" {
		return nil, fault.New(fault.InvalidState, "not started")
	}
	return s.Games.Get(ctx, lobby.GameID)
}

// PublicLobbies pages through open, public lobbies, ten per page.
func (s *Service) PublicLobbies(ctx context.Context, page int) ([]*models.Lobby, int, error) {
	open, err := s.Lobbies.ListOpen(ctx)
	if err != nil {
		return nil, 0, err
	}
	var public []*models.Lobby
	for _, l := range open {
		if l.IsPublic {
			public = append(public, l)
		}
	}
	// Stable page boundaries regardless of store iteration order.
	sort.Slice(public, func(i, j int) bool { return public[i].Key < public[j].Key })

	pages := len(public) / publicPageSize
	start := page * publicPageSize
	if start >= len(public) {
		return []*models.Lobby{}, pages, nil
	}
	end := start + publicPageSize
	if end > len(public) {
		end = len(public)
	}
	return public[start:end], pages, nil
}

func removePlayer(l *models.Lobby, id string) {
	for i := range l.Players {
		if l.Players[i].ID == id {
			l.Players = append(l.Players[:i], l.Players[i+1:]...)
			return
		}
	}
}
