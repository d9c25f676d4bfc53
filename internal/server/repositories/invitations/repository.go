// Package invitations declares the repository contract for registration
// invitations.
package invitations

import (
	"context"
	"time"

	"github.com/fitplan/fitplan/internal/server/models"
)

// Repository defines operations for issuing and consuming invitation tokens.
type Repository interface {
	// Create persists a new invitation with used=false.
	Create(ctx context.Context, inv *models.Invitation) (*models.Invitation, error)

	// Consume atomically marks the invitation matching email and token
	// used, provided it is still unused and unexpired at now, and returns
	// it. A single conditional update, never read-then-write: two
	// concurrent consumers of the same token must not both succeed.
	// Returns common.ErrInvalidInvitation when no row matches, without
	// distinguishing wrong token, expired, or already used.
	Consume(ctx context.Context, email, token string, now time.Time) (*models.Invitation, error)

	// List returns all invitations, newest first.
	List(ctx context.Context) ([]*models.Invitation, error)

	// GetByID returns one invitation or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Invitation, error)
}
