// Package service implements user registration on top of the directory store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"kiosk/internal/directory"
	dErrors "kiosk/pkg/domain-errors"
	"kiosk/pkg/platform/sentinel"
)

// Registration is what a new subscriber fills in at the kiosk terminal.
type Registration struct {
	FirstName  string
	LastName   string
	MiddleName string
	Phone      string
	Email      string
	Address    string
	AdConsent  bool
}

type Service struct {
	users  directory.Store
	logger *slog.Logger
}

func New(users directory.Store, logger *slog.Logger) *Service {
	return &Service{users: users, logger: logger}
}

// Register validates the form and creates the user. Duplicate phone or email
// comes back as CodeConflict so the terminal can re-prompt.
func (s *Service) Register(ctx context.Context, reg Registration) (*directory.User, error) {
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Phone = strings.TrimSpace(reg.Phone)
	reg.Address = strings.TrimSpace(reg.Address)

	if reg.FirstName == "" || reg.LastName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "first and last name are required")
	}
	if reg.Phone == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "phone number is required")
	}
	if reg.Address == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "address is required")
	}

	user, err := s.users.Create(ctx, &directory.User{
		FirstName:  reg.FirstName,
		LastName:   reg.LastName,
		MiddleName: strings.TrimSpace(reg.MiddleName),
		Phone:      reg.Phone,
		Email:      strings.TrimSpace(reg.Email),
		Address:    reg.Address,
		AdConsent:  reg.AdConsent,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a user with this phone or email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register user")
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// FindByPhone resolves a user for the terminal's issue-code form.
func (s *Service) FindByPhone(ctx context.Context, phone string) (*directory.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "phone number is required")
	}
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no user with this phone number")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return user, nil
}
