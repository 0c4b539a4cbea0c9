// internal/models/user.go
package models

import "time"

// User is the durable profile behind a lobby player. Keyed by the identity
// pair (Key, AuthProvider) supplied by the token.
type User struct {
	ID           string    `json:"id"`
	Key          string    `json:"key"`
	AuthProvider string    `json:"authProvider"`
	DisplayName  string    `json:"displayName"`
	Avatar       string    `json:"avatar"`
	CreatedOn    time.Time `json:"createdOn"`

	Level      int `json:"level"`
	Experience int `json:"experience"`
	Coins      int `json:"coins"`

	Badges          []string `json:"badges"`
	UnlockedAvatars []string `json:"unlockedAvatars"`
	GameIDs         []string `json:"gameIds"`
}

// LobbyPlayer converts the profile into the snapshot embedded in lobby and
// game records.
func (u *User) LobbyPlayer() LobbyPlayer {
	return LobbyPlayer{
		ID:           u.Key,
		DisplayName:  u.DisplayName,
		Avatar:       u.Avatar,
		AuthProvider: u.AuthProvider,
		Level:        u.Level,
		Badges:       append([]string(nil), u.Badges...),
	}
}
