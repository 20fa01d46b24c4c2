// internal/core/domain/errors.go
package domain

import "errors"

// Common domain errors.
var (
	// Image name errors
	ErrInvalidImageName = errors.New("invalid captcha image name")

	// Request errors
	ErrInvalidRequest  = errors.New("invalid generation request")
	ErrMissingWordlist = errors.New("wordlist is required")
	ErrMissingFont     = errors.New("font is required")
	ErrNegativeCount   = errors.New("count cannot be negative")
)
