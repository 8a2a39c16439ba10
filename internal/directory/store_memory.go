package directory

import (
	"context"
	"sync"
	"time"

	"kiosk/internal/authcode/models"
	"kiosk/pkg/platform/sentinel"
)

// InMemory keeps users in a mutex-guarded map. It backs development setups
// and every unit test; the postgres store is its production twin.
type InMemory struct {
	mu     sync.RWMutex
	users  map[models.UserID]User
	nextID models.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[models.UserID]User), nextID: 1}
}

func (s *InMemory) Create(_ context.Context, user *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Phone == user.Phone {
			return nil, sentinel.ErrConflict
		}
		if user.Email != "" && existing.Email == user.Email {
			return nil, sentinel.ErrConflict
		}
	}

	created := *user
	created.ID = s.nextID
	if created.RegisteredAt.IsZero() {
		created.RegisteredAt = time.Now()
	}
	s.nextID++
	s.users[created.ID] = created
	return &created, nil
}

func (s *InMemory) FindByID(_ context.Context, id models.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &user, nil
}

func (s *InMemory) FindByPhone(_ context.Context, phone string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Phone == phone {
			u := user
			return &u, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByChatID(_ context.Context, chatID models.ChatID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.TelegramChatID == chatID {
			u := user
			return &u, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) SetChatID(_ context.Context, id models.UserID, chatID models.ChatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	user.TelegramChatID = chatID
	s.users[id] = user
	return nil
}
