// Package notify abstracts the external chat channel used to deliver
// authorization codes.
package notify

import (
	"context"

	"kiosk/internal/authcode/models"
)

// Notifier delivers a text message to an external chat identity. The
// coordinator treats delivery as best-effort: a failed send is logged and
// counted, never allowed to fail the issuance that triggered it, because the
// code can still be relayed out-of-band.
type Notifier interface {
	Send(ctx context.Context, chatID models.ChatID, text string) error
}
