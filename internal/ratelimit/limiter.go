// Package ratelimit implements the fixed-window admission control used by
// the contact endpoint.  A client gets Limit accepted submissions per window;
// the window starts with the client's first submission and is replaced, not
// slid, once it has passed.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Default policy: five submissions per hour per client.
const (
	DefaultLimit  = 5
	DefaultWindow = time.Hour
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// Remaining is how many more submissions the window admits.
	Remaining int
	// ResetAt is when the current window ends.
	ResetAt time.Time
	// RetryAfter is set on denials: how long until the window ends.
	RetryAfter time.Duration
}

// Store holds per-client window state.  Hit must perform the check and the
// increment as one atomic step per key: two concurrent calls for the same key
// may never both observe the last free slot.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error)
}

// Limiter applies a fixed-window policy on top of a Store.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New returns a Limiter admitting limit hits per window.  Non-positive values
// fall back to DefaultLimit and DefaultWindow.
func New(store Store, limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("ratelimit: store is required")
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{store: store, limit: limit, window: window, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow records one attempt for clientID and reports whether it is admitted.
// An error means the store could not be consulted; the Decision is then
// meaningless and the caller picks the failure policy.
func (l *Limiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	return l.store.Hit(ctx, clientID, l.limit, l.window, l.now())
}

// Now reads the limiter's clock.
func (l *Limiter) Now() time.Time { return l.now() }

// Limit is the number of hits admitted per window.
func (l *Limiter) Limit() int { return l.limit }

// Window is the length of a window.
func (l *Limiter) Window() time.Duration { return l.window }
