// Package service implements admin authentication for the management panel.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"kiosk/internal/admin"
	"kiosk/internal/admin/secrets"
	"kiosk/internal/token"
	dErrors "kiosk/pkg/domain-errors"
	"kiosk/pkg/platform/sentinel"
)

type Service struct {
	admins     admin.Store
	tokens     *token.Service
	logger     *slog.Logger
	sessionTTL time.Duration
}

func New(admins admin.Store, tokens *token.Service, logger *slog.Logger, sessionTTL time.Duration) *Service {
	return &Service{
		admins:     admins,
		tokens:     tokens,
		logger:     logger,
		sessionTTL: sessionTTL,
	}
}

// Authenticate checks phone + password against the admin directory and mints
// an admin session token. Unknown phone and wrong password are both reported
// as a generic unauthorized so the response does not leak which part failed.
func (s *Service) Authenticate(ctx context.Context, phone, password string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "phone and password are required")
	}

	account, err := s.admins.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up admin")
	}
	if !account.IsActive {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	if err := secrets.Verify(password, account.PasswordHash); err != nil {
		if dErrors.Is(err, dErrors.CodeUnauthorized) {
			s.logger.WarnContext(ctx, "admin login rejected", "admin_id", account.ID)
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	signed, err := s.tokens.Mint(account.ID, token.RoleAdmin, s.sessionTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint admin token")
	}

	s.logger.InfoContext(ctx, "admin logged in", "admin_id", account.ID)
	return signed, nil
}

// Create registers a new administrator with a hashed password.
func (s *Service) Create(ctx context.Context, account admin.Admin, password string) (*admin.Admin, error) {
	account.Phone = strings.TrimSpace(account.Phone)
	if account.FirstName == "" || account.LastName == "" || account.Phone == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name and phone are required")
	}

	hash, err := secrets.Hash(password)
	if err != nil {
		return nil, err
	}
	account.PasswordHash = hash
	account.IsActive = true

	created, err := s.admins.Create(ctx, &account)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an admin with this phone already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create admin")
	}
	return created, nil
}
