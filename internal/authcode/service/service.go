// Package service implements the authorization coordinator: issuing one-time
// codes, delivering them over the chat channel, and driving the
// verify-and-bind state machine shared by the chat bot and the kiosk
// terminal.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	authmetrics "kiosk/internal/authcode/metrics"
	"kiosk/internal/authcode/models"
	"kiosk/internal/authcode/registry"
	"kiosk/internal/directory"
	"kiosk/internal/notify"
	"kiosk/internal/token"
	dErrors "kiosk/pkg/domain-errors"
	"kiosk/pkg/platform/sentinel"
)

const (
	defaultFailureLimit  = 5
	defaultFailureWindow = 15 * time.Minute
	defaultSessionTTL    = 12 * time.Hour
	defaultSendTimeout   = 10 * time.Second
)

// Service coordinates code issuance and verification. The registry is the
// only shared mutable state; both the HTTP transport and the bot poller hold
// the same Service.
type Service struct {
	registry registry.Store
	users    directory.Store
	notifier notify.Notifier
	tokens   *token.Service

	logger   *slog.Logger
	metrics  *authmetrics.Metrics
	failures *failureWindow

	sessionTTL     time.Duration
	sendTimeout    time.Duration
	blockingNotify bool
}

// Option adjusts a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *authmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFailureLimit caps wrong-code submissions per subject inside the window.
func WithFailureLimit(limit int, window time.Duration) Option {
	return func(s *Service) { s.failures = newFailureWindow(limit, window) }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

// WithBlockingNotify makes code delivery synchronous. Tests use it to assert
// on sent messages without racing the delivery goroutine.
func WithBlockingNotify() Option {
	return func(s *Service) { s.blockingNotify = true }
}

func New(reg registry.Store, users directory.Store, notifier notify.Notifier, tokens *token.Service, opts ...Option) (*Service, error) {
	if reg == nil {
		return nil, errors.New("code registry is required")
	}
	if users == nil {
		return nil, errors.New("user directory is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}

	s := &Service{
		registry:    reg,
		users:       users,
		notifier:    notifier,
		tokens:      tokens,
		logger:      slog.Default(),
		failures:    newFailureWindow(defaultFailureLimit, defaultFailureWindow),
		sessionTTL:  defaultSessionTTL,
		sendTimeout: defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueCodeForUser generates a code for the user and records it in the
// registry before any delivery is attempted, so a fast-replying user can
// never present a not-yet-registered code. If the user already has a linked
// chat the code is pushed there; otherwise the terminal displays it and the
// user relays it into the chat (first-link flow).
func (s *Service) IssueCodeForUser(ctx context.Context, userID models.UserID) (models.Code, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve user")
	}

	code, err := s.registry.Issue(ctx, userID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue code")
	}
	s.metrics.IncIssued()
	s.logger.InfoContext(ctx, "auth code issued", "user_id", userID)

	if user.Linked() {
		s.deliver(ctx, user.TelegramChatID, fmt.Sprintf("Ваш код входа: %d", code))
	}
	return code, nil
}

// VerifyFromChannel checks a code typed into the chat and, on match, binds
// the chat identity to the resolved user (first-link flow). On mismatch the
// stale code for a known subject is discarded and a replacement issued; after
// too many failures the subject locks until the window drains.
func (s *Service) VerifyFromChannel(ctx context.Context, rawCode string, chatID models.ChatID) (models.VerifyResult, error) {
	code, err := models.ParseCode(rawCode)
	if err != nil {
		// Handled validation failure: the registry stays untouched.
		s.logger.WarnContext(ctx, "unparseable auth code", "chat_id", chatID)
		return models.VerifyResult{Status: models.VerifyInvalidFormat}, nil
	}

	pending, err := s.registry.Lookup(ctx, code)
	switch {
	case err == nil:
		return s.completeChannelMatch(ctx, code, pending, chatID)
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrExpired):
		return s.handleChannelMismatch(ctx, code, chatID)
	default:
		return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "registry lookup failed")
	}
}

func (s *Service) completeChannelMatch(ctx context.Context, code models.Code, pending models.Pending, chatID models.ChatID) (models.VerifyResult, error) {
	user, err := s.users.FindByID(ctx, pending.UserID)
	if err != nil {
		return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve pending user")
	}

	if user.TelegramChatID != chatID {
		// First-link flow: persistence failure must not burn the valid
		// code, so the registry entry stays for a retry.
		if err := s.users.SetChatID(ctx, pending.UserID, chatID); err != nil {
			s.metrics.IncDirectoryError()
			s.logger.ErrorContext(ctx, "failed to bind chat identity",
				"user_id", pending.UserID, "error", err.Error())
			return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind chat identity")
		}
		s.logger.InfoContext(ctx, "chat identity linked", "user_id", pending.UserID, "chat_id", chatID)
	}

	if _, err := s.registry.Remove(ctx, code); err != nil {
		return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume code")
	}
	s.failures.reset(pending.UserID)
	s.metrics.IncVerified()
	return models.VerifyResult{Status: models.VerifyOK, UserID: pending.UserID}, nil
}

func (s *Service) handleChannelMismatch(ctx context.Context, code models.Code, chatID models.ChatID) (models.VerifyResult, error) {
	s.metrics.IncMismatch()
	s.logger.WarnContext(ctx, "auth code mismatch", "chat_id", chatID)

	// Reissue is only possible when the chat is already linked to a subject;
	// an unlinked chat typing a wrong code has nothing to replace.
	user, err := s.users.FindByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.VerifyResult{Status: models.VerifyMismatch}, nil
		}
		return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve chat")
	}

	now := time.Now()
	if s.failures.record(user.ID, now) {
		s.metrics.IncLockout()
		s.logger.WarnContext(ctx, "subject locked after repeated mismatches", "user_id", user.ID)
		return models.VerifyResult{Status: models.VerifyLocked}, nil
	}

	if err := s.reissue(ctx, user); err != nil {
		return models.VerifyResult{}, err
	}
	return models.VerifyResult{Status: models.VerifyMismatch}, nil
}

// reissue discards the subject's outstanding code, proven wrong or stale, and
// issues a fresh one with a notification.
func (s *Service) reissue(ctx context.Context, user *directory.User) error {
	active, err := s.registry.Active(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to scan registry")
	}
	for code, uid := range active {
		if uid == user.ID {
			if _, err := s.registry.Remove(ctx, code); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to discard stale code")
			}
		}
	}

	code, err := s.registry.Issue(ctx, user.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reissue code")
	}
	s.metrics.IncIssued()
	s.logger.InfoContext(ctx, "auth code reissued", "user_id", user.ID)

	if user.Linked() {
		s.deliver(ctx, user.TelegramChatID, fmt.Sprintf("Неверный код. Ваш новый код входа: %d", code))
	}
	return nil
}

// VerifyFromTerminal checks a code re-entered at the kiosk terminal. On match
// it consumes the code and mints a session token; no directory write occurs
// (the chat identity is already known in this flow).
func (s *Service) VerifyFromTerminal(ctx context.Context, rawCode string) (models.VerifyResult, error) {
	code, err := models.ParseCode(rawCode)
	if err != nil {
		return models.VerifyResult{Status: models.VerifyInvalidFormat}, nil
	}

	pending, err := s.registry.Lookup(ctx, code)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrExpired):
		s.metrics.IncMismatch()
		return models.VerifyResult{Status: models.VerifyMismatch}, nil
	default:
		return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "registry lookup failed")
	}

	if _, err := s.registry.Remove(ctx, code); err != nil {
		return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume code")
	}
	s.failures.reset(pending.UserID)
	s.metrics.IncVerified()

	result := models.VerifyResult{Status: models.VerifyOK, UserID: pending.UserID}
	if s.tokens != nil {
		signed, err := s.tokens.Mint(int64(pending.UserID), token.RoleUser, s.sessionTTL)
		if err != nil {
			return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint session token")
		}
		result.SessionToken = signed
	}
	s.logger.InfoContext(ctx, "terminal login", "user_id", pending.UserID)
	return result, nil
}

// RemoveCode discards a stale code the terminal no longer wants honored.
func (s *Service) RemoveCode(ctx context.Context, code models.Code) (bool, error) {
	removed, err := s.registry.Remove(ctx, code)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove code")
	}
	return removed, nil
}

// ActiveCodes snapshots outstanding authorizations. Diagnostic surface; the
// transport keeps it behind admin auth.
func (s *Service) ActiveCodes(ctx context.Context) (map[models.Code]models.UserID, error) {
	active, err := s.registry.Active(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot registry")
	}
	return active, nil
}

// RunSweeper evicts expired codes on the given interval until ctx ends.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := s.registry.Sweep(ctx, now); evicted > 0 {
				s.metrics.AddExpired(evicted)
				s.logger.InfoContext(ctx, "expired codes evicted", "count", evicted)
			}
		}
	}
}

// deliver pushes a message to the chat. Issuance already succeeded by the
// time delivery starts, and the channel may be unreliable, so failures are
// observed (logged, counted) but never propagated.
func (s *Service) deliver(ctx context.Context, chatID models.ChatID, text string) {
	send := func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sendTimeout)
		defer cancel()

		if err := s.notifier.Send(sendCtx, chatID, text); err != nil {
			s.metrics.IncNotifyFailure()
			s.logger.ErrorContext(sendCtx, "code delivery failed",
				"chat_id", chatID, "error", err.Error())
		}
	}

	if s.blockingNotify {
		send()
		return
	}
	go send()
}
