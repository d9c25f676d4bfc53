package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fitplan/fitplan/internal/common"
	"github.com/fitplan/fitplan/internal/cryptox"
	"github.com/fitplan/fitplan/internal/dbx"
	"github.com/fitplan/fitplan/internal/logging"
	"github.com/fitplan/fitplan/internal/server/config"
	"github.com/fitplan/fitplan/internal/server/mail"
	"github.com/fitplan/fitplan/internal/server/models"
	"github.com/fitplan/fitplan/internal/server/repositories/repomanager"
)

const passwordResetSubject = "Reset your fitplan password"

// PasswordResetService implements the self-service forgot/reset flow.
// Request never reveals whether an account exists: it answers the same way
// for any email and swallows delivery failures, logging them server-side.
type PasswordResetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    mail.Notifier
	logger      logging.Logger
	validity    time.Duration
	appBaseURL  string
}

func NewPasswordResetService(db *sql.DB, m repomanager.RepositoryManager, notifier mail.Notifier, logger logging.Logger, cfg *config.Config) *PasswordResetService {
	return &PasswordResetService{
		db:          db,
		repomanager: m,
		notifier:    notifier,
		logger:      logger,
		validity:    cfg.ResetTokenValidityDuration,
		appBaseURL:  cfg.AppBaseURL,
	}
}

// Request issues a reset token for email and mails the reset link. It
// always returns nil: an unknown email, a store error, and a delivery
// failure all look identical to the caller. Token values are never logged.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error(ctx, "password reset lookup failed", "error", err.Error())
		}
		return nil
	}

	token, err := common.MakeRandHexString(tokenRandBytes)
	if err != nil {
		s.logger.Error(ctx, "password reset token generation failed", "error", err.Error())
		return nil
	}

	row := &models.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.validity),
	}
	if _, err := s.repomanager.ResetTokens(s.db).Create(ctx, row); err != nil {
		s.logger.Error(ctx, "password reset token persist failed", "error", err.Error())
		return nil
	}

	body := mail.PasswordResetBody(s.appBaseURL, email, token)
	if err := s.notifier.Send(ctx, email, passwordResetSubject, body); err != nil {
		s.logger.Error(ctx, "password reset email delivery failed", "user_id", user.ID, "error", err.Error())
	}

	return nil
}

// Reset consumes the token and updates the password in one transaction.
// The conditional mark-used and the password write either both land or
// both roll back; a token is never burned without the password changing.
// Unknown email, wrong token, expired, and already-used all come back as
// ErrInvalidOrExpiredToken.
func (s *PasswordResetService) Reset(ctx context.Context, email, token, newPassword string) error {
	email = common.NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidOrExpiredToken
		}
		return common.ErrInternal
	}

	// hash outside the transaction; bcrypt is deliberately slow
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return common.ErrInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.ResetTokens(tx).Consume(ctx, user.ID, token, time.Now()); err != nil {
			return err
		}
		return s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash)
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidOrExpiredToken) {
			return common.ErrInvalidOrExpiredToken
		}
		return common.ErrInternal
	}

	return nil
}
