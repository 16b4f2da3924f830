package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
	// dead marks an entry removed by Sweep; holders must look it up again.
	dead bool
}

func (e *entry) hit(limit int, window time.Duration, now time.Time) Decision {
	if e.count == 0 || now.After(e.resetAt) {
		e.count = 1
		e.resetAt = now.Add(window)
		return Decision{Allowed: true, Remaining: limit - 1, ResetAt: e.resetAt}
	}
	if e.count >= limit {
		return Decision{ResetAt: e.resetAt, RetryAfter: e.resetAt.Sub(now)}
	}
	e.count++
	return Decision{Allowed: true, Remaining: limit - e.count, ResetAt: e.resetAt}
}

// MemoryStore keeps window state in process memory.  State is lost on
// restart and is not shared between instances.
//
// The map lock only guards the map itself; each entry has its own lock so
// clients never wait on each other.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entry)}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error) {
	for {
		s.mu.Lock()
		e, ok := s.entries[key]
		if !ok {
			e = &entry{}
			s.entries[key] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		d := e.hit(limit, window, now)
		e.mu.Unlock()
		return d, nil
	}
}

// Sweep drops every entry whose window ended before now and returns how
// many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.entries {
		e.mu.Lock()
		if now.After(e.resetAt) {
			e.dead = true
			delete(s.entries, k)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// Len is the number of tracked clients.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
