package invitations

import (
	"context"
	"database/sql"
	"errors"
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

func (r *PostgresRepository) Create(ctx context.Context, inv *models.Invitation) (*models.Invitation, error) {

	query :=
		`INSERT INTO invitations (id, email, name, phone, is_new, role, token, expires_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		inv.ID, inv.Email, inv.Name, inv.Phone, inv.IsNew, inv.Role, inv.Token, inv.ExpiresAt).
		Scan(&inv.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return inv, nil
}

// Consume is the single atomic conditional update that enforces at-most-once
// use of an invitation token. The WHERE clause re-checks used and expiry
// inside the statement, so concurrent callers race on the row update and at
// most one of them gets it back.
func (r *PostgresRepository) Consume(ctx context.Context, email, token string, now time.Time) (*models.Invitation, error) {

	query :=
		`UPDATE invitations SET used = true
		 WHERE email = $1 AND token = $2 AND used = false AND expires_at > $3
		 RETURNING id, name, phone, is_new, role, created_at, expires_at
		 `

	inv := &models.Invitation{Email: email, Token: token, Used: true}
	err := r.db.QueryRowContext(ctx, query, email, token, now).
		Scan(&inv.ID, &inv.Name, &inv.Phone, &inv.IsNew, &inv.Role, &inv.CreatedAt, &inv.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrInvalidInvitation
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return inv, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Invitation, error) {
	query :=
		`SELECT id, email, name, phone, is_new, role, token, created_at, expires_at, used FROM invitations
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Invitation
	for rows.Next() {
		inv := &models.Invitation{}
		if err := rows.Scan(&inv.ID, &inv.Email, &inv.Name, &inv.Phone, &inv.IsNew,
			&inv.Role, &inv.Token, &inv.CreatedAt, &inv.ExpiresAt, &inv.Used); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	query :=
		`SELECT id, email, name, phone, is_new, role, token, created_at, expires_at, used FROM invitations
		 WHERE id = $1
		 `

	inv := &models.Invitation{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&inv.ID, &inv.Email, &inv.Name, &inv.Phone, &inv.IsNew,
			&inv.Role, &inv.Token, &inv.CreatedAt, &inv.ExpiresAt, &inv.Used)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return inv, nil
}
