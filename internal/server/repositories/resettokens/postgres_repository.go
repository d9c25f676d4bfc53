package resettokens

import (
	"context"
	"fmt"
	"time"

	"github.com/fitplan/fitplan/internal/common"
	"github.com/fitplan/fitplan/internal/dbx"
	"github.com/fitplan/fitplan/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.PasswordResetToken) (*models.PasswordResetToken, error) {

	query :=
		`INSERT INTO password_reset_tokens (id, user_id, token, expires_at)
         VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		token.ID, token.UserID, token.Token, token.ExpiresAt).
		Scan(&token.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

// Consume marks the matching unused, unexpired token used in one conditional
// update and checks the affected-row count.
func (r *PostgresRepository) Consume(ctx context.Context, userID, token string, now time.Time) error {

	query :=
		`UPDATE password_reset_tokens SET used = true
		 WHERE user_id = $1 AND token = $2 AND used = false AND expires_at > $3
		 `

	res, err := r.db.ExecContext(ctx, query, userID, token, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrInvalidOrExpiredToken
	}

	return nil
}
