// Package common defines shared constants and sentinel errors used across
// the fitplan backend. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")

	// Credential errors. Deliberately a single value for both "no such
	// user" and "wrong password" so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Registration / invitation errors.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidInvitation      = errors.New("invalid invitation")

	// Token lifecycle errors. Expired, already used, and unknown tokens
	// all collapse into this one value at the boundary.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// Auth errors (invalid, malformed, or expired signed claims).
	ErrInvalidToken = errors.New("invalid token")

	// Infrastructure errors.
	ErrNotificationFailed = errors.New("notification failed")
)
