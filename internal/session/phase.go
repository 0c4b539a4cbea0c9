// internal/session/phase.go
package session

import (
	"time"

	"github.com/spacedog-labs/wikiracer/internal/models"
)

// Timing constants for every session. LeadIn is the countdown between the
// start call and moves counting; Cooldown is how long after EndTime a new
// session may not start.
const (
	LeadIn   = 10 * time.Second
	Cooldown = 20 * time.Second
)

// Phase is the session lifecycle state, derived purely from the lobby record
// and a wall-clock instant. No explicit transition event exists for the
// time-driven edges; every reader evaluates this function instead.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLeadIn
	PhaseActive
	PhaseFinished
	PhaseCooldown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLeadIn:
		return "leadIn"
	case PhaseActive:
		return "active"
	case PhaseFinished:
		return "finished"
	case PhaseCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// PhaseOf evaluates the session phase at the given instant.
func PhaseOf(l *models.Lobby, now time.Time) Phase {
	if l.StartTime.IsZero() {
		return PhaseIdle
	}
	if now.After(l.EndTime) {
		if now.After(l.EndTime.Add(Cooldown)) {
			return PhaseIdle
		}
		return PhaseCooldown
	}
	if now.Before(l.StartTime.Add(-LeadIn)) {
		return PhaseIdle
	}
	if now.Before(l.StartTime) {
		return PhaseLeadIn
	}
	// Inside the active window. The session also counts as finished early
	// once every active player has completed.
	if active := l.ActiveCount(); active > 0 && l.FinishedCount() >= active {
		return PhaseFinished
	}
	return PhaseActive
}

// Running reports whether the session gates navigation recording: true
// whenever now is within [StartTime-LeadIn, EndTime]. The lead-in interval is
// included even though moves made before StartTime proper are the free
// start-article visit.
func Running(l *models.Lobby, now time.Time) bool {
	if l.StartTime.IsZero() {
		return false
	}
	return !now.Before(l.StartTime.Add(-LeadIn)) && !now.After(l.EndTime)
}
