package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")
	ErrRateLimited   = errors.New("rate limited")
	ErrConfiguration = errors.New("configuration error")
	ErrUpstream      = errors.New("upstream unavailable")
)

// RateLimitedError carries the remaining lockout window so handlers can
// emit a Retry-After header. errors.Is(err, ErrRateLimited) holds for it.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	mins := int(e.RetryAfter.Minutes())
	if mins < 1 {
		mins = 1
	}
	return fmt.Sprintf("too many attempts, try again in %d minutes", mins)
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }
