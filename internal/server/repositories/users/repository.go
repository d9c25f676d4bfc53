// Package users declares the repository contract for identity records.
package users

import (
	"context"

	"github.com/fitplan/fitplan/internal/server/models"
)

// Repository defines the durable-store operations the credential system
// requires for users. Implementations must map a duplicate email on Create
// to common.ErrEmailAlreadyRegistered and an absent row to common.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
}
