// internal/profanity/profanity.go
package profanity

import goaway "github.com/TwiN/go-away"

// Filter is consulted before a chat message is accepted.
type Filter interface {
	ContainsProfanity(text string) bool
}

// Detector wraps the go-away word lists.
type Detector struct {
	detector *goaway.ProfanityDetector
}

// NewDetector builds a detector with the default dictionaries.
func NewDetector() *Detector {
	return &Detector{detector: goaway.NewProfanityDetector()}
}

func (d *Detector) ContainsProfanity(text string) bool {
	return d.detector.IsProfane(text)
}
