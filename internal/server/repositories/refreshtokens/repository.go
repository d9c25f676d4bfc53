// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"

	"github.com/fitplan/fitplan/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking
// refresh tokens.
type Repository interface {
	// Create stores a new refresh token row with revoked=false.
	Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error)

	// Find looks up a refresh token by its exact opaque string and returns
	// its stored state, revoked or not. Returns common.ErrNotFound when
	// the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// RevokeAllForUser sets revoked=true on every live (non-revoked,
	// unexpired at now) token owned by userID, as one bulk conditional
	// update. Idempotent: a second call affects zero rows and succeeds.
	RevokeAllForUser(ctx context.Context, userID string) error
}
