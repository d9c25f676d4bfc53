package models

import "time"

// Invitation gates self-registration. The token is a single-use opaque
// credential delivered as a magic link; it is valid while used is false
// and ExpiresAt lies in the future.
type Invitation struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	IsNew     bool      `json:"is_new"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}
