package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrResourceNotFound is returned when a provider reports that the requested profile does not exist.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrRateLimited is the sentinel every RateLimitError unwraps to.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInvalidRepository is returned by NewRepository for values that break the model's invariants.
	ErrInvalidRepository = errors.New("invalid repository")
)

// RateLimitError reports that a provider signaled request budget exhaustion.
type RateLimitError struct {
	Provider string
	// Reset is when the provider expects the budget to be restored. Zero if unknown.
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return fmt.Sprintf("%s: %v", e.Provider, ErrRateLimited)
	}
	return fmt.Sprintf("%s: %v (resets at %s)", e.Provider, ErrRateLimited, e.Reset.UTC().Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
