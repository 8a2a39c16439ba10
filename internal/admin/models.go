// Package admin holds the administrator accounts that unlock the kiosk's
// management surface.
package admin

import "time"

// Admin is a staff account. PasswordHash is a bcrypt hash and never leaves
// the store layer in API responses.
type Admin struct {
	ID           int64
	FirstName    string
	LastName     string
	MiddleName   string
	Phone        string
	Email        string
	Address      string
	Salary       float64
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
