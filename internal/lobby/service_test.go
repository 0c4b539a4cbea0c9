// internal/lobby/service_test.go
package lobby

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/fault"
	"github.com/spacedog-labs/wikiracer/internal/models"
	"github.com/spacedog-labs/wikiracer/internal/session"
	"github.com/spacedog-labs/wikiracer/internal/store"
)

// fakeUsers resolves profiles from a map and serves a canned popular list.
type fakeUsers struct {
	top []string
}

func (f *fakeUsers) Resolve(ctx context.Context, subject, provider, displayName string) (*models.User, error) {
	return &models.User{
		ID:           "u-" + subject,
		Key:          subject,
		AuthProvider: provider,
		DisplayName:  displayName,
		Avatar:       "default.png",
		Level:        1,
		Badges:       []string{"beta"},
	}, nil
}

func (f *fakeUsers) TopArticles(ctx context.Context, limit int) ([]string, error) {
	return f.top, nil
}

// wordFilter flags messages containing a fixed token.
type wordFilter struct{}

func (wordFilter) ContainsProfanity(text string) bool {
	return strings.Contains(text, "zut")
}

func identity(subject string) auth.Identity {
	return auth.Identity{Subject: subject, Provider: auth.ProviderGuest, DisplayName: "Player " + subject}
}

func newLobbyService(t *testing.T, clock clockwork.Clock) *Service {
	t.Helper()
	return &Service{
		Lobbies: store.NewMemoryLobbyStore(),
		Games:   store.NewMemoryGameStore(),
		Users:   &fakeUsers{top: []string{"Dog", "Cat", "Philosophy", "France"}},
		Filter:  wordFilter{},
		Clock:   clock,
	}
}

func testClock() clockwork.Clock {
	return clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestGenerateJoinKey(t *testing.T) {
	for i := 0; i < 100; i++ {
		key := generateJoinKey()
		require.Len(t, key, 5)
		for _, c := range key {
			assert.Contains(t, joinKeyPool, string(c))
		}
	}
}

func TestCreateSeedsLobby(t *testing.T) {
	svc := newLobbyService(t, testClock())
	ctx := context.Background()

	lobby, err := svc.Create(ctx, identity("alice"))
	require.NoError(t, err)

	assert.Len(t, lobby.Key, 5)
	assert.Equal(t, "alice", lobby.Owner.ID)
	assert.False(t, lobby.IsPublic)
	assert.True(t, lobby.IsOpen)
	assert.Equal(t, defaultGameLength, lobby.CurrentGameLength)
	require.Len(t, lobby.Players, 1)
	assert.Equal(t, "alice", lobby.Players[0].ID)

	// Seeded endpoints come from the popular list and differ.
	assert.NotEmpty(t, lobby.StartArticle)
	assert.NotEmpty(t, lobby.EndArticle)
	assert.NotEqual(t, lobby.StartArticle, lobby.EndArticle)

	stored, err := svc.Lobbies.Get(ctx, lobby.Key)
	require.NoError(t, err)
	assert.Equal(t, lobby.ID, stored.ID)
}

func TestCreateWithoutPopularArticles(t *testing.T) {
	svc := newLobbyService(t, testClock())
	svc.Users = &fakeUsers{top: nil}

	lobby, err := svc.Create(context.Background(), identity("alice"))
	require.NoError(t, err)
	assert.Empty(t, lobby.StartArticle)
	assert.Empty(t, lobby.EndArticle)
}

func TestJoinIsIdempotent(t *testing.T) {
	svc := newLobbyService(t, testClock())
	ctx := context.Background()
	lobby, err := svc.Create(ctx, identity("alice"))
	require.NoError(t, err)

	joined, err := svc.Join(ctx, lobby.Key, identity("bob"))
	require.NoError(t, err)
	assert.Len(t, joined.Players, 2)

	again, err := svc.Join(ctx, lobby.Key, identity("bob"))
	require.NoError(t, err)
	assert.Len(t, again.Players, 2)
}

func TestJoinBanned(t *testing.T) {
	svc := newLobbyService(t, testClock())
	ctx := context.Background()
	lobby, err := svc.Create(ctx, identity("alice"))
	require.NoError(t, err)

	require.NoError(t, svc.Ban(ctx, lobby.Key, "bob", identity("alice")))

	_, err = svc.Join(ctx, lobby.Key, identity("bob"))
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.Forbidden))
	assert.Equal(t, "banned", fault.Reason(err))
}

func TestBanRemovesMembership(t *testing.T) {
	svc := newLobbyService(t, testClock())
	ctx := context.Background()
	lobby, err := svc.Create(ctx, identity("alice"))
	require.NoError(t, err)
	_, err = svc.Join(ctx, lobby.Key, identity("bob"))
	require.NoError(t, err)

	// Only the owner can ban.
	err = svc.Ban(ctx, lobby.Key, "alice", identity("bob"))
	require.Error(t, err)
	assert.Equal(t, "not owner", fault.Reason(err))

	require.NoError(t, svc.Ban(ctx, lobby.Key, "bob", identity("alice")))
	stored, err := svc.Lobbies.Get(ctx, lobby.Key)
	require.NoError(t, err)
	assert.False(t, stored.HasPlayer("bob"))
	assert.True(t, stored.IsBanned("bob"))

	// Repeat ban is a no-op.
	require.NoError(t, svc.Ban(ctx, lobby.Key, "bob", identity("alice")))
	stored, err = svc.Lobbies.Get(ctx, lobby.Key)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, stored.BanList)
}

func TestLeaveClosesLobbyWhenOwnerLeaves(t *testing.T) {
	svc := newLobbyService(t, testClock())
	ctx := context.Background()
	lobby, err := svc.Create(ctx, identity("alice"))
	require.NoError(t, err)
	_, err = svc.Join(ctx, lobby.Key, identity("bob"))
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, lobby.Key, "bob"))
	stored, err := svc.Lobbies.Get(ctx, lobby.Key)
	require.NoError(t, err)
	assert.True(t, stored.IsOpen)
	assert.False(t, stored.HasPlayer("bob"))

	_, err = svc.Join(ctx, lobby.Key, identity("carol"))
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, lobby.Key, "alice"))
	stored, err = svc.Lobbies.Get(ctx, lobby.Key)
	require.NoError(t, err)
	assert.False(t, stored.IsOpen)

	// The last member out deletes the record.
	require.NoError(t, svc.Leave(ctx, lobby.Key, "carol"))
	_, err = svc.Lobbies.Get(ctx, lobby.Key)
	assert.True(t, fault.Is(err, fault.NotFound))
}

func TestPostMessageValidation(t *testing.T) {
	svc := newLobbyService(t, testClock())
	ctx := context.Background()
	lobby, err := svc.Create(ctx, identity("alice"))
	require.NoError(t, err)

	// 144 characters is the longest accepted message.
	longest := strings.Repeat("a", 144)
	msg, err := svc.PostMessage(ctx, lobby.Key, identity("alice"), longest)
	require.NoError(t, err)
	assert.Equal(t, "alice", msg.Author.ID)

	_, err = svc.PostMessage(ctx, lobby.Key, identity("alice"), longest+"a")
	require.Error(t, err)
	assert.Equal(t, "length", fault.Reason(err))

	_, err = svc.PostMessage(ctx, lobby.Key, identity("alice"), "well zut alors")
	require.Error(t, err)
	assert.Equal(t, "profanity", fault.Reason(err))

	_, err = svc.PostMessage(ctx, lobby.Key, identity("stranger"), "hello")
	require.Error(t, err)
	assert.Equal(t, "not a member", fault.Reason(err))

	stored, err := svc.Lobbies.Get(ctx, lobby.Key)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, longest, stored.Messages[0].Text)
}

func TestSetArticlesBounds(t *testing.T) {
	svc := newLobbyService(t, testClock())
	ctx := context.Background()
	lobby, err := svc.Create(ctx, identity("alice"))
	require.NoError(t, err)

	require.NoError(t, svc.SetArticles(ctx, lobby.Key, identity("alice"), "Dog", "Philosophy", 15))

	err = svc.SetArticles(ctx, lobby.Key, identity("alice"), "Dog", "Philosophy", 16)
	require.Error(t, err)
	assert.Equal(t, "bad game length", fault.Reason(err))

	err = svc.SetArticles(ctx, lobby.Key, identity("alice"), "Dog", "Philosophy", -1)
	require.Error(t, err)
	assert.Equal(t, "bad game length", fault.Reason(err))

	err = svc.SetArticles(ctx, lobby.Key, identity("bob"), "Dog", "Philosophy", 5)
	require.Error(t, err)
	assert.Equal(t, "not owner", fault.Reason(err))
}

func TestSettingsLockedWhileRunning(t *testing.T) {
	clock := testClock()
	svc := newLobbyService(t, clock)
	ctx := context.Background()
	lobby, err := svc.Create(ctx, identity("alice"))
	require.NoError(t, err)

	now := clock.Now().UTC()
	_, err = store.MutateLobby(ctx, svc.Lobbies, lobby.Key, func(l *models.Lobby) error {
		l.GameID = "g1"
		l.StartTime = now.Add(session.LeadIn)
		l.EndTime = now.Add(session.LeadIn + 4*time.Minute)
		return nil
	})
	require.NoError(t, err)

	err = svc.SetArticles(ctx, lobby.Key, identity("alice"), "Dog", "Cat", 5)
	require.Error(t, err)
	assert.Equal(t, "game running", fault.Reason(err))

	err = svc.SetPublic(ctx, lobby.Key, identity("alice"), true)
	require.Error(t, err)
	assert.Equal(t, "game running", fault.Reason(err))

	err = svc.SetActive(ctx, lobby.Key, identity("alice"), false)
	require.Error(t, err)
	assert.Equal(t, "game running", fault.Reason(err))

	err = svc.OwnerCanEdit(ctx, lobby.Key, identity("alice"))
	require.Error(t, err)
	assert.Equal(t, "game running", fault.Reason(err))
}

func TestSetActiveToggles(t *testing.T) {
	svc := newLobbyService(t, testClock())
	ctx := context.Background()
	lobby, err := svc.Create(ctx, identity("alice"))
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, lobby.Key, identity("alice"), true))
	stored, err := svc.Lobbies.Get(ctx, lobby.Key)
	require.NoError(t, err)
	assert.True(t, stored.Player("alice").Active)

	err = svc.SetActive(ctx, lobby.Key, identity("stranger"), true)
	require.Error(t, err)
	assert.Equal(t, "not a member", fault.Reason(err))
}

func TestCurrentGameRequiresMembershipAndStart(t *testing.T) {
	svc := newLobbyService(t, testClock())
	ctx := context.Background()
	lobby, err := svc.Create(ctx, identity("alice"))
	require.NoError(t, err)

	_, err = svc.CurrentGame(ctx, lobby.Key, identity("stranger"))
	require.Error(t, err)
	assert.Equal(t, "not a member", fault.Reason(err))

	_, err = svc.CurrentGame(ctx, lobby.Key, identity("alice"))
	require.Error(t, err)
	assert.Equal(t, "not started", fault.Reason(err))

	game := &models.Game{ID: "g1", Key: "g1"}
	require.NoError(t, svc.Games.Add(ctx, game))
	_, err = store.MutateLobby(ctx, svc.Lobbies, lobby.Key, func(l *models.Lobby) error {
		l.GameID = "g1"
		return nil
	})
	require.NoError(t, err)

	got, err := svc.CurrentGame(ctx, lobby.Key, identity("alice"))
	require.NoError(t, err)
	assert.Equal(t, "g1", got.ID)
}

func TestPublicLobbiesPaging(t *testing.T) {
	svc := newLobbyService(t, testClock())
	ctx := context.Background()

	// 12 public lobbies with deterministic keys, plus one private.
	for i := 0; i < 12; i++ {
		lobby := &models.Lobby{
			ID:       fmt.Sprintf("id-%02d", i),
			Key:      fmt.Sprintf("KEY%02d", i),
			IsPublic: true,
			IsOpen:   true,
		}
		require.NoError(t, svc.Lobbies.Add(ctx, lobby))
	}
	require.NoError(t, svc.Lobbies.Add(ctx, &models.Lobby{ID: "p", Key: "PRIVZ", IsOpen: true}))

	first, pages, err := svc.PublicLobbies(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	require.Len(t, first, 10)
	assert.Equal(t, "KEY00", first[0].Key)

	second, _, err := svc.PublicLobbies(ctx, 1)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "KEY10", second[0].Key)

	empty, _, err := svc.PublicLobbies(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
