// internal/fault/fault.go
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule or infrastructure failure so handlers can
// map it to a transport status without string matching.
type Kind int

const (
	// NotFound means a lobby, game, user, or article does not exist.
	NotFound Kind = iota
	// Forbidden means the caller is not allowed: not owner, banned, not a member.
	Forbidden
	// InvalidState means the operation arrived in the wrong session phase.
	InvalidState
	// InvalidInput means the request payload violates a bound or filter.
	InvalidInput
	// Conflict means a read-modify-write lost the version race after retries.
	Conflict
	// Upstream means an external collaborator (content fetch, identity, store
	// connectivity) failed; no record was written.
	Upstream
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case InvalidState:
		return "invalid_state"
	case InvalidInput:
		return "invalid_input"
	case Conflict:
		return "conflict"
	case Upstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error carries a Kind plus the specific reason string returned to callers.
type Error struct {
	Kind   Kind
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an Error with a reason string.
func New(kind Kind, reason string) error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap builds an Error that preserves the underlying cause.
func Wrap(kind Kind, reason string, cause error) error {
	return &Error{Kind: kind, Reason: reason, cause: cause}
}

// KindOf extracts the Kind from err, if it is or wraps a fault.Error.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Reason returns the reason string from err, or err.Error() for plain errors.
func Reason(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return err.Error()
}
