// internal/handlers/owner.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/fault"
)

func (s *Server) handleBan(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	err := s.Lobby.Ban(r.Context(), r.URL.Query().Get("lobbyKey"), r.URL.Query().Get("userKey"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetArticle(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	q := r.URL.Query()
	gameLength, err := strconv.Atoi(q.Get("gameLength"))
	if err != nil {
		writeError(w, fault.New(fault.InvalidInput, "bad game length"))
		return
	}
	err = s.Lobby.SetArticles(r.Context(), q.Get("lobbyKey"), id, q.Get("start"), q.Get("finish"), gameLength)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	q := r.URL.Query()
	if err := s.Lobby.OwnerCanEdit(r.Context(), q.Get("lobbyKey"), id); err != nil {
		writeError(w, err)
		return
	}
	results, err := s.Wiki.Search(r.Context(), q.Get("term"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleSetPublic(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	q := r.URL.Query()
	isPublic, _ := strconv.ParseBool(q.Get("isPublic"))
	if err := s.Lobby.SetPublic(r.Context(), q.Get("lobbyKey"), id, isPublic); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	game, err := s.Session.Start(r.Context(), r.URL.Query().Get("lobbyKey"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (s *Server) handleEndEarly(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	if err := s.Session.EndEarly(r.Context(), r.URL.Query().Get("lobbyKey"), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
