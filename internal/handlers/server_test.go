// internal/handlers/server_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/fault"
	"github.com/spacedog-labs/wikiracer/internal/lobby"
	"github.com/spacedog-labs/wikiracer/internal/models"
	"github.com/spacedog-labs/wikiracer/internal/nav"
	"github.com/spacedog-labs/wikiracer/internal/profanity"
	"github.com/spacedog-labs/wikiracer/internal/session"
	"github.com/spacedog-labs/wikiracer/internal/store"
	"github.com/spacedog-labs/wikiracer/internal/wiki"
	"github.com/spacedog-labs/wikiracer/internal/ws"
)

// fakeProfiles backs every user-directory interface the server composes.
type fakeProfiles struct {
	users map[string]*models.User
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{users: make(map[string]*models.User)}
}

func (f *fakeProfiles) Resolve(ctx context.Context, subject, provider, displayName string) (*models.User, error) {
	if u, ok := f.users[subject]; ok {
		return u, nil
	}
	u := &models.User{
		ID:              "u-" + subject,
		Key:             subject,
		AuthProvider:    provider,
		DisplayName:     displayName,
		Avatar:          "default.png",
		Level:           1,
		Badges:          []string{"beta"},
		UnlockedAvatars: []string{"default.png", "fox.png"},
	}
	f.users[subject] = u
	return u, nil
}

func (f *fakeProfiles) SetAvatar(ctx context.Context, subject, provider, avatar string) error {
	if u, ok := f.users[subject]; ok {
		u.Avatar = avatar
	}
	return nil
}

func (f *fakeProfiles) TopArticles(ctx context.Context, limit int) ([]string, error) {
	return []string{"Dog", "Cat", "Philosophy"}, nil
}

func (f *fakeProfiles) AppendGameID(ctx context.Context, subject, provider, gameID string) error {
	return nil
}

func (f *fakeProfiles) GrantReward(ctx context.Context, subject, provider string, experience, coins int) error {
	return nil
}

type fakeWiki struct{}

func (fakeWiki) Fetch(ctx context.Context, key string) (*wiki.Article, error) {
	if key == "Missing" {
		return nil, fault.New(fault.NotFound, "missing page")
	}
	return &wiki.Article{Title: key}, nil
}

func (fakeWiki) Search(ctx context.Context, term string) ([]wiki.SearchResult, error) {
	return []wiki.SearchResult{{Title: term, Snippet: "about " + term}}, nil
}

type testEnv struct {
	router http.Handler
	clock  *clockwork.FakeClock
	token  string
	id     auth.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	lobbies := store.NewMemoryLobbyStore()
	games := store.NewMemoryGameStore()
	profiles := newFakeProfiles()
	fetcher := fakeWiki{}

	srv := &Server{
		Logger:   logger,
		Resolver: auth.JWTResolver{},
		Lobby: &lobby.Service{
			Lobbies: lobbies, Games: games, Users: profiles,
			Filter: profanity.NewDetector(), Clock: clock,
		},
		Session: &session.Service{Lobbies: lobbies, Games: games, Users: profiles, Clock: clock},
		Nav:     &nav.Service{Lobbies: lobbies, Games: games, Fetcher: fetcher, Clock: clock},
		Wiki:    fetcher,
		Profiles: profiles,
		Lobbies:  lobbies,
		Hub:      ws.NewHub(logger),
	}

	id := auth.NewGuestIdentity()
	token, err := auth.CreateJWT(id)
	require.NoError(t, err)

	return &testEnv{router: srv.Routes(), clock: clock, token: token, id: id}
}

func (e *testEnv) do(t *testing.T, method, path string, query url.Values, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if query != nil {
		target += "?" + query.Encode()
	}
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec
}

func TestGuestTokenIssuance(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/guest", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["displayName"])

	// The minted token authenticates.
	got, err := auth.JWTResolver{}.ResolveIdentity(body["token"])
	require.NoError(t, err)
	assert.Equal(t, auth.ProviderGuest, got.Provider)
}

func TestRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeCreatesProfile(t *testing.T) {
	env := newTestEnv(t)

	var user models.User
	rec := env.do(t, http.MethodGet, "/api/user/me", nil, &user)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, env.id.Subject, user.Key)
	assert.Equal(t, "default.png", user.Avatar)
}

func TestSetAvatarChecksUnlocks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/user/setavatar", url.Values{"avatar": {"fox.png"}}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/user/setavatar", url.Values{"avatar": {"crown.png"}}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLobbyLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	var created models.Lobby
	rec := env.do(t, http.MethodPost, "/api/lobby/create", nil, &created)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, created.Key)
	q := url.Values{"lobbyKey": {created.Key}}

	// Owner sets the race up and marks themselves active.
	rec = env.do(t, http.MethodGet, "/api/lobby/owner/setarticle", url.Values{
		"lobbyKey": {created.Key}, "start": {"Dog"}, "finish": {"Philosophy"}, "gameLength": {"4"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/lobby/player/setactive", url.Values{
		"lobbyKey": {created.Key}, "active": {"true"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Chat.
	rec = env.do(t, http.MethodPost, "/api/lobby/player/message", url.Values{
		"lobbyKey": {created.Key}, "message": {"ready when you are"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Start and race to the finish.
	var game models.Game
	rec = env.do(t, http.MethodPost, "/api/lobby/owner/start", q, &game)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, game.ID)

	env.clock.Advance(30 * time.Second)

	var article wiki.Article
	rec = env.do(t, http.MethodGet, "/api/lobby/player/article", url.Values{
		"lobbyKey": {created.Key}, "key": {"Philosophy"},
	}, &article)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Philosophy", article.Title)

	var current models.Game
	rec = env.do(t, http.MethodGet, "/api/lobby/player/currentgame", q, &current)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, game.ID, current.ID)
	require.NotNil(t, current.History(env.id.Subject))
	assert.True(t, current.History(env.id.Subject).Player.Finished)

	// Everyone finished, owner may end early.
	rec = env.do(t, http.MethodPost, "/api/lobby/owner/endearly", q, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	// Unknown lobby: 404.
	rec := env.do(t, http.MethodPost, "/api/lobby/join", url.Values{"lobbyKey": {"NOPE!"}}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var created models.Lobby
	rec = env.do(t, http.MethodPost, "/api/lobby/create", nil, &created)
	require.Equal(t, http.StatusOK, rec.Code)

	// Bad game length: 400 with the rule's reason.
	rec = env.do(t, http.MethodGet, "/api/lobby/owner/setarticle", url.Values{
		"lobbyKey": {created.Key}, "start": {"Dog"}, "finish": {"Cat"}, "gameLength": {"99"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad game length")

	// Start without articles chosen is rejected.
	rec = env.do(t, http.MethodGet, "/api/lobby/owner/setarticle", url.Values{
		"lobbyKey": {created.Key}, "start": {""}, "finish": {""}, "gameLength": {"4"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/lobby/owner/start", url.Values{"lobbyKey": {created.Key}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "startfinish")
}

func TestOwnerSearch(t *testing.T) {
	env := newTestEnv(t)

	var created models.Lobby
	rec := env.do(t, http.MethodPost, "/api/lobby/create", nil, &created)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []wiki.SearchResult
	rec = env.do(t, http.MethodGet, "/api/lobby/owner/search", url.Values{
		"lobbyKey": {created.Key}, "term": {"dogs"},
	}, &results)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, results, 1)
	assert.Equal(t, "dogs", results[0].Title)
}

func TestPublicListing(t *testing.T) {
	env := newTestEnv(t)

	var created models.Lobby
	rec := env.do(t, http.MethodPost, "/api/lobby/create", nil, &created)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Lobbies []*models.Lobby `json:"lobbies"`
		Pages   int             `json:"pages"`
	}
	rec = env.do(t, http.MethodGet, "/api/lobby/public", nil, &listing)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, listing.Lobbies)

	rec = env.do(t, http.MethodPost, "/api/lobby/owner/setpublic", url.Values{
		"lobbyKey": {created.Key}, "isPublic": {"true"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/lobby/public", nil, &listing)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, listing.Lobbies, 1)
	assert.Equal(t, created.Key, listing.Lobbies[0].Key)
}

func TestHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
