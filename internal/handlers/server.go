// internal/handlers/server.go
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/lobby"
	"github.com/spacedog-labs/wikiracer/internal/middleware"
	"github.com/spacedog-labs/wikiracer/internal/models"
	"github.com/spacedog-labs/wikiracer/internal/nav"
	"github.com/spacedog-labs/wikiracer/internal/session"
	"github.com/spacedog-labs/wikiracer/internal/store"
	"github.com/spacedog-labs/wikiracer/internal/wiki"
	"github.com/spacedog-labs/wikiracer/internal/ws"
)

// ProfileDirectory is the slice of the durable user store the HTTP layer
// touches directly.
type ProfileDirectory interface {
	Resolve(ctx context.Context, subject, provider, displayName string) (*models.User, error)
	SetAvatar(ctx context.Context, subject, provider, avatar string) error
}

// Server wires the services behind the HTTP surface. Every route maps 1:1 to
// a core operation with its stated preconditions and failure reasons.
type Server struct {
	Logger   *logrus.Logger
	Resolver auth.Resolver
	Lobby    *lobby.Service
	Session  *session.Service
	Nav      *nav.Service
	Wiki     wiki.Fetcher
	Profiles ProfileDirectory
	Lobbies  store.LobbyStore
	Hub      *ws.Hub

	AllowedOrigins []string
}

// Routes assembles the router: request logging everywhere, identity
// middleware on everything but guest token issuance and the websocket (which
// authenticates during the upgrade).
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))

	origins := s.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.LogMiddleware(s.Logger))

	r.Get("/api/user/guest", s.handleGuest)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.Resolver))

		r.Get("/api/user/me", s.handleMe)
		r.Post("/api/user/setavatar", s.handleSetAvatar)

		r.Get("/api/lobby/public", s.handlePublicLobbies)
		r.Post("/api/lobby/create", s.handleCreateLobby)
		r.Post("/api/lobby/join", s.handleJoinLobby)
		r.Post("/api/lobby/leave", s.handleLeaveLobby)

		r.Get("/api/lobby/player/article", s.handleArticle)
		r.Get("/api/lobby/player/currentgame", s.handleCurrentGame)
		r.Post("/api/lobby/player/message", s.handleMessage)
		r.Post("/api/lobby/player/setactive", s.handleSetActive)

		r.Post("/api/lobby/owner/ban", s.handleBan)
		r.Get("/api/lobby/owner/setarticle", s.handleSetArticle)
		r.Get("/api/lobby/owner/search", s.handleSearch)
		r.Post("/api/lobby/owner/setpublic", s.handleSetPublic)
		r.Post("/api/lobby/owner/start", s.handleStart)
		r.Post("/api/lobby/owner/endearly", s.handleEndEarly)
	})

	r.Get("/lobby/ws/{lobbyKey}", s.handleLobbyWS)

	return r
}
