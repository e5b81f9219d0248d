package schedule

import "errors"

// Sentinel errors for the scheduling core. Handlers map these onto HTTP
// status codes; callers match with errors.Is.
var (
	ErrInvalidTimeFormat  = errors.New("invalid time format")
	ErrDuplicateException = errors.New("duplicate exception")
	ErrOverlapConflict    = errors.New("exception overlaps an existing one")
	ErrSelectionOverlap   = errors.New("session selection overlaps another session")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyCancelled   = errors.New("appointment already cancelled")
	ErrPartialFetch       = errors.New("schedule sources incomplete")
)
