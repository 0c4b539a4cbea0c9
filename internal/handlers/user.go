// internal/handlers/user.go
package handlers

import (
	"net/http"

	"github.com/spacedog-labs/wikiracer/internal/auth"
	"github.com/spacedog-labs/wikiracer/internal/fault"
)

// handleGuest mints an anonymous identity and returns a signed token plus the
// generated display name. No profile row exists until the guest first calls
// an authenticated endpoint.
func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	id := auth.NewGuestIdentity()
	token, err := auth.CreateJWT(id)
	if err != nil {
		s.Logger.Errorf("guest token issuance failed: %v", err)
		http.Error(w, "token issuance failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token":       token,
		"displayName": id.DisplayName,
	})
}

// handleMe resolves the caller's profile, creating a starter profile on
// first sight.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	user, err := s.Profiles.Resolve(r.Context(), id.Subject, id.Provider.String(), id.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleSetAvatar switches the caller's avatar. The profile is resolved first
// so the row exists and the unlock list can be checked.
func (s *Server) handleSetAvatar(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	avatar := r.URL.Query().Get("avatar")

	user, err := s.Profiles.Resolve(r.Context(), id.Subject, id.Provider.String(), id.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	unlocked := false
	for _, a := range user.UnlockedAvatars {
		if a == avatar {
			unlocked = true
			break
		}
	}
	if !unlocked {
		writeError(w, fault.New(fault.Forbidden, "avatar locked"))
		return
	}
	if err := s.Profiles.SetAvatar(r.Context(), id.Subject, id.Provider.String(), avatar); err != nil {
		writeError(w, err)
		return
	}
	user.Avatar = avatar
	writeJSON(w, http.StatusOK, user)
}
