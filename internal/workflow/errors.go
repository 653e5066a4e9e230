package workflow

import "errors"

// Sentinel errors for the engine's failure taxonomy. Handlers map these to
// client errors; neither ever leaves the session mutated.
var (
	// ErrNotFound marks an unknown scenario or phase.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks an advance past the final phase or a jump to
	// a phase outside the scenario's phase list.
	ErrInvalidTransition = errors.New("invalid transition")
)
