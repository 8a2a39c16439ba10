package admin

import (
	"context"
	"sync"
	"time"

	"kiosk/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	admins map[int64]Admin
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{admins: make(map[int64]Admin), nextID: 1}
}

func (s *InMemory) Create(_ context.Context, a *Admin) (*Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.admins {
		if existing.Phone == a.Phone {
			return nil, sentinel.ErrConflict
		}
	}

	created := *a
	created.ID = s.nextID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	s.nextID++
	s.admins[created.ID] = created
	return &created, nil
}

func (s *InMemory) FindByPhone(_ context.Context, phone string) (*Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.admins {
		if a.Phone == phone {
			found := a
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
