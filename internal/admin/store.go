package admin

import "context"

// Store persists administrator accounts. Misses are sentinel.ErrNotFound and
// duplicate phones sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, a *Admin) (*Admin, error)
	FindByPhone(ctx context.Context, phone string) (*Admin, error)
}
