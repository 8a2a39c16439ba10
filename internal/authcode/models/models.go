package models

import (
	"strconv"
	"strings"
	"time"

	dErrors "kiosk/pkg/domain-errors"
)

// Code is a one-time 4-digit authorization code. The thousands digit is never
// zero and all four digits are pairwise distinct, so the value always lies in
// [1023, 9876]. A code has no identity of its own; it exists only as a
// registry key while the authorization it correlates is outstanding.
type Code int

// UserID identifies a registered kiosk user in the directory.
type UserID int64

// ChatID identifies an external chat account (Telegram chat id).
type ChatID int64

func (c Code) String() string {
	return strconv.Itoa(int(c))
}

// ParseCode converts user-typed input into a Code. Codes travel through chat
// messages and terminal text fields, so non-numeric and out-of-range input is
// an expected outcome, classified CodeBadRequest rather than raised.
func ParseCode(raw string) (Code, error) {
	trimmed := strings.TrimSpace(raw)
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "authorization code must be a number")
	}
	if n < 1000 || n > 9999 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "authorization code must have four digits")
	}
	return Code(n), nil
}

// Pending is a registry entry: one outstanding authorization awaiting
// confirmation from the channel or terminal side.
type Pending struct {
	UserID   UserID
	IssuedAt time.Time
}

// VerifyStatus enumerates the outcomes of a code verification. An explicit
// kind replaces ambiguous bool/nil signaling so callers always know which
// branch they are on.
type VerifyStatus string

const (
	// VerifyOK: code matched; the authorization completed.
	VerifyOK VerifyStatus = "ok"
	// VerifyInvalidFormat: input was not a 4-digit number; registry untouched.
	VerifyInvalidFormat VerifyStatus = "invalid_format"
	// VerifyMismatch: no active entry for the code; stale code discarded and,
	// on the channel side, a replacement issued.
	VerifyMismatch VerifyStatus = "mismatch"
	// VerifyLocked: too many failed attempts inside the window; the flow must
	// restart from issuance after the window drains.
	VerifyLocked VerifyStatus = "locked"
)

// VerifyResult reports a verification outcome to the caller.
type VerifyResult struct {
	Status VerifyStatus
	// UserID is set when Status is VerifyOK.
	UserID UserID
	// SessionToken is set on successful terminal verification.
	SessionToken string
}

// OK is a convenience accessor for callers that only branch on success.
func (r VerifyResult) OK() bool {
	return r.Status == VerifyOK
}
