package shared

import (
	"errors"
	"fmt"
)

// Error taxonomy roots. Domain packages wrap these into their own sentinels
// so httpx.RespondError can map any classified error to a status.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a lost race or state conflict; callers may retry.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates a rejected credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidAPIKey indicates a rejected service credential.
	ErrInvalidAPIKey = fmt.Errorf("invalid api key: %w", ErrUnauthorized)
)
