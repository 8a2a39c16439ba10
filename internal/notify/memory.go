package notify

import (
	"context"
	"sync"

	"kiosk/internal/authcode/models"
)

// Sent records one delivered message.
type Sent struct {
	ChatID models.ChatID
	Text   string
}

// InMemory is the test double for the chat channel: it records sends and can
// be scripted to fail.
type InMemory struct {
	mu   sync.Mutex
	sent []Sent

	// FailWith, when set, is returned by every Send.
	FailWith error
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (n *InMemory) Send(_ context.Context, chatID models.ChatID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.FailWith != nil {
		return n.FailWith
	}
	n.sent = append(n.sent, Sent{ChatID: chatID, Text: text})
	return nil
}

// Messages snapshots everything sent so far.
func (n *InMemory) Messages() []Sent {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Sent, len(n.sent))
	copy(out, n.sent)
	return out
}
