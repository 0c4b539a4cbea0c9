// internal/session/rewards.go
package session

// Reward rates per active player, frozen onto the game record at start.
const (
	experiencePerPlayer = 20
	coinsPerPlayer      = 1
)

// ExperienceReward is the experience grant for a session with the given
// active player count.
func ExperienceReward(activePlayers int) int {
	return experiencePerPlayer * activePlayers
}

// CoinReward is the coin grant for a session with the given active player count.
func CoinReward(activePlayers int) int {
	return coinsPerPlayer * activePlayers
}
