package directory

import (
	"time"

	"kiosk/internal/authcode/models"
)

// User is a registered kiosk subscriber. TelegramChatID is zero until the
// first-link flow binds a chat account to the record.
type User struct {
	ID             models.UserID
	FirstName      string
	LastName       string
	MiddleName     string
	Phone          string
	Email          string
	Address        string
	AdConsent      bool
	RegisteredAt   time.Time
	TelegramChatID models.ChatID
}

// Linked reports whether a chat account is already bound to the user.
func (u User) Linked() bool {
	return u.TelegramChatID != 0
}
