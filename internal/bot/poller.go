// Package bot runs the chat side of the authorization flow: a long-polling
// loop that greets users, collects typed codes, and reports the outcome.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"kiosk/internal/authcode/models"
	"kiosk/internal/notify"
	"kiosk/internal/notify/telegram"
)

const (
	msgWelcome = "Добро пожаловать в систему авторизации газетного киоска!\n\n" +
		"Пожалуйста, введите код, который вы получили в приложении:"
	msgAuthorized = "Авторизация успешна!\n\n" +
		"Теперь вы можете использовать бота для входа в систему."
	msgWrongCode = "Неверный код авторизации.\n\n" +
		"Пожалуйста, проверьте код и попробуйте снова, " +
		"или вернитесь в приложение для получения нового кода."
	msgLocked = "Слишком много неверных попыток.\n\n" +
		"Запросите новый код в приложении и попробуйте позже."
	msgUseStart = "Отправьте /start, чтобы начать авторизацию."
)

// chat conversation states.
type chatState string

const (
	stateWaitingForCode chatState = "waiting_for_code"
	stateAuthorized     chatState = "authorized"
)

// Verifier is the coordinator surface the bot needs.
type Verifier interface {
	VerifyFromChannel(ctx context.Context, rawCode string, chatID models.ChatID) (models.VerifyResult, error)
}

// UpdateSource produces inbound chat updates, normally the telegram client.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

// Poller drives the code-entry conversation over long polling.
type Poller struct {
	updates  UpdateSource
	sender   notify.Notifier
	verifier Verifier
	logger   *slog.Logger

	pollTimeout time.Duration
	retryDelay  time.Duration

	mu     sync.Mutex
	states map[models.ChatID]chatState
}

func NewPoller(updates UpdateSource, sender notify.Notifier, verifier Verifier, logger *slog.Logger) *Poller {
	return &Poller{
		updates:     updates,
		sender:      sender,
		verifier:    verifier,
		logger:      logger,
		pollTimeout: 30 * time.Second,
		retryDelay:  5 * time.Second,
		states:      make(map[models.ChatID]chatState),
	}
}

// Run polls until ctx ends. Poll errors are logged and retried after a delay;
// the loop itself never gives up.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := p.updates.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.ErrorContext(ctx, "poll failed", "error", err.Error())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.retryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			p.handle(ctx, update)
		}
	}
}

func (p *Poller) handle(ctx context.Context, update telegram.Update) {
	if update.Message == nil {
		return
	}
	chatID := models.ChatID(update.Message.Chat.ID)
	text := strings.TrimSpace(update.Message.Text)

	if text == "/start" {
		p.setState(chatID, stateWaitingForCode)
		p.reply(ctx, chatID, msgWelcome)
		return
	}

	if p.state(chatID) != stateWaitingForCode {
		p.reply(ctx, chatID, msgUseStart)
		return
	}

	result, err := p.verifier.VerifyFromChannel(ctx, text, chatID)
	if err != nil {
		p.logger.ErrorContext(ctx, "verification failed",
			"chat_id", chatID, "error", err.Error())
		// Internal failure: generic retry prompt, no error details to the user.
		p.reply(ctx, chatID, msgWrongCode)
		return
	}

	switch result.Status {
	case models.VerifyOK:
		p.setState(chatID, stateAuthorized)
		p.reply(ctx, chatID, msgAuthorized)
	case models.VerifyLocked:
		p.reply(ctx, chatID, msgLocked)
	default:
		p.reply(ctx, chatID, msgWrongCode)
	}
}

func (p *Poller) reply(ctx context.Context, chatID models.ChatID, text string) {
	if err := p.sender.Send(ctx, chatID, text); err != nil {
		p.logger.ErrorContext(ctx, "reply failed", "chat_id", chatID, "error", err.Error())
	}
}

func (p *Poller) state(chatID models.ChatID) chatState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[chatID]
}

func (p *Poller) setState(chatID models.ChatID, s chatState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[chatID] = s
}
