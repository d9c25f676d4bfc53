package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {

	query :=
		`INSERT INTO refresh_tokens (id, user_id, token, expires_at)
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

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query :=
		`SELECT id, user_id, token, created_at, expires_at, revoked FROM refresh_tokens
		 WHERE token = $1
		 `

	t := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt, &t.Revoked)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

// RevokeAllForUser is one bulk conditional update: a token row created after
// a read would be missed by a read-then-loop, so no read happens at all.
func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query :=
		`UPDATE refresh_tokens SET revoked = true
		 WHERE user_id = $1 AND revoked = false AND expires_at > now()
		 `

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
