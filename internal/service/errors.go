package service

import "errors"

// Domain outcomes. Service methods wrap these with context; callers test
// them with errors.Is.
var (
	// ErrNotFound means the entity is absent or the caller may not know it exists
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the entity is visible but the caller lacks the right
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means a booking race was lost or a relation would point at the caller
	ErrConflict = errors.New("conflict")
	// ErrUpstream means the metadata extractor failed or timed out
	ErrUpstream = errors.New("upstream failure")
	// ErrInvalid means the input failed validation
	ErrInvalid = errors.New("invalid input")
)
