// internal/models/lobby.go
package models

import "time"

// Owner identifies the user that created a lobby. Immutable for the lobby's life.
type Owner struct {
	ID           string `json:"id"`
	AuthProvider string `json:"authProvider"`
}

// Lobby is one race room: a roster of players, a ban list, the chosen start
// and end articles, and the timing bounds of the active (or most recent)
// session. It is stored as a full document; every mutation is a
// read-modify-write of the whole record guarded by Version.
type Lobby struct {
	ID      string        `json:"id"`
	Key     string        `json:"key"`
	Owner   Owner         `json:"owner"`
	Players []LobbyPlayer `json:"players"`
	BanList []string      `json:"banList"`
	Messages []Message    `json:"messages"`

	IsPublic bool `json:"isPublic"`
	IsOpen   bool `json:"isOpen"`

	StartArticle      string `json:"startArticle"`
	EndArticle        string `json:"endArticle"`
	CurrentGameLength int    `json:"currentGameLength"` // minutes, 0..15

	// GameID references the active/most-recent game, empty until a first start.
	GameID string `json:"gameId,omitempty"`

	// StartTime stays zero ("never") until a session starts. The active
	// window is [StartTime-leadIn, EndTime].
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	// Version is the optimistic-concurrency token; incremented on every write.
	Version int64 `json:"version"`
}

// LobbyPlayer is a membership record embedded in the lobby. Identity fields
// are a snapshot taken at join time, not live-synced to the user profile.
type LobbyPlayer struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"displayName"`
	Avatar       string   `json:"avatar"`
	AuthProvider string   `json:"authProvider"`
	Level        int      `json:"level"`
	Badges       []string `json:"badges"`

	CurrentArticle string    `json:"currentArticle"`
	Finished       bool      `json:"finished"`
	FinishedTime   time.Time `json:"finishedTime,omitempty"`
	Active         bool      `json:"active"`
	LastUpdate     time.Time `json:"lastUpdate"`
}

// Message is a chat entry. Immutable once created.
type Message struct {
	ID     string      `json:"id"`
	Author LobbyPlayer `json:"author"`
	Text   string      `json:"text"`
}

// Player returns a pointer into Players for the given id, or nil.
func (l *Lobby) Player(id string) *LobbyPlayer {
	for i := range l.Players {
		if l.Players[i].ID == id {
			return &l.Players[i]
		}
	}
	return nil
}

// HasPlayer reports membership by player id.
func (l *Lobby) HasPlayer(id string) bool {
	return l.Player(id) != nil
}

// IsBanned reports whether id appears on the ban list.
func (l *Lobby) IsBanned(id string) bool {
	for _, b := range l.BanList {
		if b == id {
			return true
		}
	}
	return false
}

// IsOwner reports whether id is the lobby owner.
func (l *Lobby) IsOwner(id string) bool {
	return l.Owner.ID == id
}

// ArticlesSet reports whether both race endpoints have been chosen.
func (l *Lobby) ArticlesSet() bool {
	return l.StartArticle != "" && l.EndArticle != ""
}

// ActiveCount counts players flagged to participate in the next session.
func (l *Lobby) ActiveCount() int {
	n := 0
	for i := range l.Players {
		if l.Players[i].Active {
			n++
		}
	}
	return n
}

// FinishedCount counts players whose completion flag is set.
func (l *Lobby) FinishedCount() int {
	n := 0
	for i := range l.Players {
		if l.Players[i].Finished {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so stores can hand out records without aliasing
// the caller's slices.
func (l *Lobby) Clone() *Lobby {
	cp := *l
	cp.Players = make([]LobbyPlayer, len(l.Players))
	for i := range l.Players {
		cp.Players[i] = l.Players[i]
		cp.Players[i].Badges = append([]string(nil), l.Players[i].Badges...)
	}
	cp.BanList = append([]string(nil), l.BanList...)
	cp.Messages = make([]Message, len(l.Messages))
	for i := range l.Messages {
		cp.Messages[i] = l.Messages[i]
		cp.Messages[i].Author.Badges = append([]string(nil), l.Messages[i].Author.Badges...)
	}
	return &cp
}
