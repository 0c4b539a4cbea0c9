// internal/lobby/keygen.go
package lobby

import "math/rand"

// joinKeyPool over-weights vowels so generated keys tend to be pronounceable.
const joinKeyPool = "AAABCDEEEFGHIIIJKLMNOOOPQRSTUUUVWXYYYZ"

const joinKeyLength = 5

// generateJoinKey draws a 5-character code from the weighted alphabet.
// Uniqueness among open lobbies is the caller's job.
func generateJoinKey() string {
	b := make([]byte, joinKeyLength)
	for i := range b {
		b[i] = joinKeyPool[rand.Intn(len(joinKeyPool))]
	}
	return string(b)
}
