package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store (a mistyped auth code lands here)
// - ErrExpired: auth code outlived its TTL
// - ErrConflict: uniqueness violated (duplicate phone, occupied code slot)
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
