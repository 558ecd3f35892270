package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidSortField is returned when a list request names a sort
	// field outside the allowed set.
	ErrInvalidSortField = errors.New("invalid sort field")

	// ErrInvalidPageRequest is returned when page number or size are out of range.
	ErrInvalidPageRequest = errors.New("invalid page request")
)
