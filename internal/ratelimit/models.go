// Package ratelimit applies sliding-window request limits per client IP,
// with a stricter class for authentication endpoints and a failed-login
// lockout. The window store is in-memory; the middleware fails open when the
// store errors so rate limiting never takes the API down.
package ratelimit

import "time"

// EndpointClass selects which limit applies to a route group.
type EndpointClass string

const (
	// ClassPublic covers ordinary API endpoints.
	ClassPublic EndpointClass = "public"
	// ClassAuth covers login/refresh endpoints, which get a tighter limit.
	ClassAuth EndpointClass = "auth"
)

// Result reports the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// LockoutResult reports the outcome of a failed-login lockout check.
type LockoutResult struct {
	Locked     bool
	Attempts   int
	RetryAfter time.Duration
}
