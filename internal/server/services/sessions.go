// Package services contains the server-side business logic of the
// credential system: login, invitations, registration, password reset, and
// refresh-token sessions. Services talk to the durable store only through
// the repository interfaces handed out by a RepositoryManager.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fitplan/fitplan/internal/common"
	"github.com/fitplan/fitplan/internal/server/auth"
	"github.com/fitplan/fitplan/internal/server/config"
	"github.com/fitplan/fitplan/internal/server/models"
	"github.com/fitplan/fitplan/internal/server/repositories/repomanager"
)

// tokenRandBytes is the entropy of every opaque token (invitation, reset,
// refresh); rendered as hex the string is twice as long.
const tokenRandBytes = 32

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService tracks refresh tokens per user. Access tokens are signed
// claims; refresh tokens are opaque strings persisted server-side so they
// can be revoked before natural expiry.
type SessionService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewSessionService constructs a SessionService using repositories and
// server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	return &SessionService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Issue mints an access token for user and persists a fresh refresh token
// row. Called on login and registration; a user may accumulate several live
// rows (one per device).
func (s *SessionService) Issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Email, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}

	refresh, err := common.MakeRandHexString(tokenRandBytes)
	if err != nil {
		return nil, common.ErrInternal
	}

	row := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(s.refreshTokenValidityDuration),
	}
	if _, err := s.repomanager.RefreshTokens(s.db).Create(ctx, row); err != nil {
		return nil, common.ErrInternal
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates the stored refresh-token row and mints a new access
// token. The owner's email and role are re-read from the users table rather
// than trusted from any prior claims, so a role change takes effect on the
// next refresh. The refresh token itself is not rotated.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*models.User, string, error) {
	row, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.ErrInvalidOrExpiredToken
		}
		return nil, "", common.ErrInternal
	}
	if !row.Usable(time.Now()) {
		return nil, "", common.ErrInvalidOrExpiredToken
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// owner deleted since issuance; the token is dead
			return nil, "", common.ErrInvalidOrExpiredToken
		}
		return nil, "", common.ErrInternal
	}

	access, err := auth.GenerateToken(user.ID, user.Email, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, "", common.ErrInternal
	}

	return user, access, nil
}

// RevokeAllForUser invalidates every live refresh token owned by userID.
// Idempotent: a second call is a no-op.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := s.repomanager.RefreshTokens(s.db).RevokeAllForUser(ctx, userID); err != nil {
		return common.ErrInternal
	}
	return nil
}
