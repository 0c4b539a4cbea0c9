// internal/models/game.go
package models

import "time"

// Game is one timed race session. Created by a successful start transition,
// never deleted, only marked finished.
type Game struct {
	ID  string `json:"id"`
	Key string `json:"key"`

	StartArticle  string `json:"startArticle"`
	FinishArticle string `json:"finishArticle"`

	StartTime  time.Time `json:"startTime"`
	FinishTime time.Time `json:"finishTime"`

	// GameHistories holds one entry per player that was active at start.
	// The set of histories is frozen at start; players joining mid-session
	// are not added.
	GameHistories []GameHistory `json:"gameHistories"`

	Finished     bool `json:"finished"`
	RewardIssued bool `json:"rewardIssued"`

	// Rewards are computed once at start from the active player count.
	ExperienceReward int `json:"experienceReward"`
	CoinReward       int `json:"coinReward"`

	Version int64 `json:"version"`
}

// GameHistory is one player's trace within a game. The embedded player is a
// snapshot taken at session start; its finished/currentArticle fields are
// updated here during the session, not on the lobby's copy.
type GameHistory struct {
	Player      LobbyPlayer      `json:"player"`
	Navigations []GameNavigation `json:"navigations"`
}

// GameNavigation is an append-only move record. The first entry of every
// history is the start article at the start instant.
type GameNavigation struct {
	Article   string    `json:"article"`
	Timestamp time.Time `json:"timestamp"`
}

// History returns a pointer into GameHistories for the given player id, or nil.
func (g *Game) History(playerID string) *GameHistory {
	for i := range g.GameHistories {
		if g.GameHistories[i].Player.ID == playerID {
			return &g.GameHistories[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the game record.
func (g *Game) Clone() *Game {
	cp := *g
	cp.GameHistories = make([]GameHistory, len(g.GameHistories))
	for i := range g.GameHistories {
		cp.GameHistories[i] = g.GameHistories[i]
		cp.GameHistories[i].Player.Badges = append([]string(nil), g.GameHistories[i].Player.Badges...)
		cp.GameHistories[i].Navigations = append([]GameNavigation(nil), g.GameHistories[i].Navigations...)
	}
	return &cp
}
