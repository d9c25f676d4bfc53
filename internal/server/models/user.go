// Package models defines the persisted entities of the credential system.
package models

import "time"

// Roles assignable to a user. The core treats the role as plain data;
// access decisions belong to the HTTP boundary.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an identity record. Email is stored lower-cased and unique.
type User struct {
	ID             string
	Email          string
	Name           string
	Phone          string
	PasswordHash   string
	Role           string
	ProfilePicture string
	CreatedAt      time.Time
}

// Summary returns the user without the password hash, safe to hand to
// callers outside the core.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Phone:          u.Phone,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
}

// UserSummary is the externally visible projection of a User.
type UserSummary struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Role           string    `json:"role"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
