package suggest

import "errors"

// Sentinel errors returned by the suggestion service. Store implementations
// of the ports in ports.go return these same values so callers can map them
// with errors.Is regardless of the backing storage.
var (
	// ErrNotFound covers a missing suggestion and a suggestion that is no
	// longer pending: both look the same to the caller (404).
	ErrNotFound = errors.New("suggestion not found")

	// ErrGameAssigned means the suggestion's game already holds a
	// non-terminal assignment (409).
	ErrGameAssigned = errors.New("game already has an active assignment")

	// ErrNoGames means none of the requested game ids exist (404).
	ErrNoGames = errors.New("no games found for request")

	// ErrNoCandidates means the candidate pool excluded every referee (404).
	ErrNoCandidates = errors.New("no eligible referees available")
)

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
