// Package directory is the user persistence layer consumed by the
// authorization coordinator and the registration service.
package directory

import (
	"context"

	"kiosk/internal/authcode/models"
)

// Store exposes the user operations the rest of the system needs. Lookup
// misses are sentinel.ErrNotFound; phone/email uniqueness violations are
// sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id models.UserID) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByChatID(ctx context.Context, chatID models.ChatID) (*User, error)

	// SetChatID persists the chat identity bound by the first-link flow.
	SetChatID(ctx context.Context, id models.UserID, chatID models.ChatID) error
}
