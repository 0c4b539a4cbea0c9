// internal/syncer/evaluate.go
package syncer

import (
	"time"

	"github.com/spacedog-labs/wikiracer/internal/models"
	"github.com/spacedog-labs/wikiracer/internal/session"
)

// Snapshot is the lobby/game view pushed to connected clients. It is a pure
// function of the records and the evaluation instant, so the delivery step
// can diff consecutive snapshots without consulting the stores again.
type Snapshot struct {
	Type  string        `json:"type"`
	Phase string        `json:"phase"`
	Lobby *models.Lobby `json:"lobby"`
	Game  *models.Game  `json:"game,omitempty"`
}

// Evaluate derives the broadcast snapshot for one lobby at the given instant.
func Evaluate(lobby *models.Lobby, game *models.Game, now time.Time) Snapshot {
	return Snapshot{
		Type:  "lobby_state",
		Phase: session.PhaseOf(lobby, now).String(),
		Lobby: lobby,
		Game:  game,
	}
}
