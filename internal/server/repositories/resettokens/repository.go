// Package resettokens declares the repository contract for password-reset
// tokens.
package resettokens

import (
	"context"
	"time"

	"github.com/fitplan/fitplan/internal/server/models"
)

// Repository defines operations for issuing and consuming password-reset
// tokens.
type Repository interface {
	// Create persists a new reset token with used=false.
	Create(ctx context.Context, token *models.PasswordResetToken) (*models.PasswordResetToken, error)

	// Consume atomically marks the token matching userID and token used,
	// provided it is still unused and unexpired at now. Implemented as one
	// conditional update so the same token cannot be consumed twice under
	// concurrent requests. Returns common.ErrInvalidOrExpiredToken when no
	// row matches.
	Consume(ctx context.Context, userID, token string, now time.Time) error
}
