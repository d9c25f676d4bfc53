package models

import "time"

// RefreshToken is a server-tracked session credential. A row is usable for
// refresh while Revoked is false and ExpiresAt lies in the future. A user
// may hold several live rows at once (multi-device sessions).
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// Usable reports whether the token can still mint access tokens at the
// given instant.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
