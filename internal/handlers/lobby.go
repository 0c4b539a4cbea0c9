// internal/handlers/lobby.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/models"
)

// publicLobbyResponse is the paginated listing payload.
type publicLobbyResponse struct {
	Lobbies []*models.Lobby `json:"lobbies"`
	Pages   int             `json:"pages"`
}

func (s *Server) handlePublicLobbies(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 0 {
		page = 0
	}
	lobbies, pages, err := s.Lobby.PublicLobbies(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, publicLobbyResponse{Lobbies: lobbies, Pages: pages})
}

func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	lobby, err := s.Lobby.Create(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}

func (s *Server) handleJoinLobby(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	lobby, err := s.Lobby.Join(r.Context(), r.URL.Query().Get("lobbyKey"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}

func (s *Server) handleLeaveLobby(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	if err := s.Lobby.Leave(r.Context(), r.URL.Query().Get("lobbyKey"), id.Subject); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCurrentGame(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	game, err := s.Lobby.CurrentGame(r.Context(), r.URL.Query().Get("lobbyKey"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	msg, err := s.Lobby.PostMessage(r.Context(), r.URL.Query().Get("lobbyKey"), id, r.URL.Query().Get("message"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	active, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	if err := s.Lobby.SetActive(r.Context(), r.URL.Query().Get("lobbyKey"), id, active); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

// handleArticle records a navigation and returns the resolved content.
func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	article, err := s.Nav.Navigate(r.Context(), r.URL.Query().Get("lobbyKey"), id, r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}
