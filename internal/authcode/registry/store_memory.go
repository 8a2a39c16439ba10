package registry

import (
	"context"
	"sync"
	"time"

	"kiosk/internal/authcode/models"
	"kiosk/pkg/platform/sentinel"
)

// InMemory is the default registry: a mutex-guarded map with TTL enforced on
// lookup and by periodic Sweep. Single-process deployments (one kiosk, one
// bot) need nothing more; multi-instance deployments use the redis store.
type InMemory struct {
	mu       sync.RWMutex
	entries  map[models.Code]models.Pending
	generate Generate
	ttl      time.Duration
}

// NewInMemory builds an in-memory registry. A ttl of zero disables expiry.
func NewInMemory(generate Generate, ttl time.Duration) *InMemory {
	return &InMemory{
		entries:  make(map[models.Code]models.Pending),
		generate: generate,
		ttl:      ttl,
	}
}

// Issue holds the lock across generate-check-insert so concurrent issuances
// can never observe the same free code. The 4-digit space is small enough
// that collisions are plausible under load; retry-until-free is mandatory.
func (s *InMemory) Issue(_ context.Context, userID models.UserID) (models.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.generate()
	for s.activeLocked(code, time.Now()) {
		code = s.generate()
	}

	s.entries[code] = models.Pending{UserID: userID, IssuedAt: time.Now()}
	return code, nil
}

func (s *InMemory) Lookup(_ context.Context, code models.Code) (models.Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.entries[code]
	if !ok {
		return models.Pending{}, sentinel.ErrNotFound
	}
	if s.expired(pending, time.Now()) {
		delete(s.entries, code)
		return models.Pending{}, sentinel.ErrExpired
	}
	return pending, nil
}

func (s *InMemory) Remove(_ context.Context, code models.Code) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[code]
	delete(s.entries, code)
	return ok, nil
}

func (s *InMemory) Active(_ context.Context) (map[models.Code]models.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	active := make(map[models.Code]models.UserID, len(s.entries))
	for code, pending := range s.entries {
		if s.expired(pending, now) {
			continue
		}
		active[code] = pending.UserID
	}
	return active, nil
}

// Sweep evicts expired entries. The coordinator runs it on a ticker so
// abandoned codes free their slots instead of lingering until lookup.
func (s *InMemory) Sweep(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for code, pending := range s.entries {
		if s.expired(pending, now) {
			delete(s.entries, code)
			evicted++
		}
	}
	return evicted
}

func (s *InMemory) activeLocked(code models.Code, now time.Time) bool {
	pending, ok := s.entries[code]
	if !ok {
		return false
	}
	return !s.expired(pending, now)
}

func (s *InMemory) expired(pending models.Pending, now time.Time) bool {
	if s.ttl <= 0 {
		return false
	}
	return now.Sub(pending.IssuedAt) > s.ttl
}
