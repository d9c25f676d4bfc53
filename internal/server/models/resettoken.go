package models

import "time"

// PasswordResetToken is a single-use credential for the forgot-password
// flow. Same validity rule as Invitation: unused and unexpired.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}
