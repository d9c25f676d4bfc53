package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitplan/fitplan/internal/common"
	"github.com/fitplan/fitplan/internal/logging"
	"github.com/fitplan/fitplan/internal/server/config"
	"github.com/fitplan/fitplan/internal/server/mail"
	"github.com/fitplan/fitplan/internal/server/models"
	"github.com/fitplan/fitplan/internal/server/repositories/repomanager"
)

const invitationSubject = "You have been invited to fitplan"

// InvitationService issues and lists the single-use invitation tokens that
// gate registration. Consumption happens inside AuthService.Register so the
// mark-used and the user insert share one transaction.
type InvitationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    mail.Notifier
	logger      logging.Logger
	validity    time.Duration
	appBaseURL  string
}

func NewInvitationService(db *sql.DB, m repomanager.RepositoryManager, notifier mail.Notifier, logger logging.Logger, cfg *config.Config) *InvitationService {
	return &InvitationService{
		db:          db,
		repomanager: m,
		notifier:    notifier,
		logger:      logger,
		validity:    cfg.InvitationValidityDuration,
		appBaseURL:  cfg.AppBaseURL,
	}
}

// Invite creates an invitation for email and sends the magic link.
// Fails with ErrEmailAlreadyRegistered when a user already holds the email.
// The invitation row is durably created before the email goes out; a
// delivery failure comes back as ErrNotificationFailed together with the
// created invitation, so the caller knows the record exists but the link
// was not delivered.
func (s *InvitationService) Invite(ctx context.Context, email, name, phone string, isNew bool, role string) (*models.Invitation, error) {
	email = common.NormalizeEmail(email)

	_, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrEmailAlreadyRegistered
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	token, err := common.MakeRandHexString(tokenRandBytes)
	if err != nil {
		return nil, common.ErrInternal
	}

	if role == "" {
		role = models.RoleUser
	}

	inv := &models.Invitation{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Phone:     phone,
		IsNew:     isNew,
		Role:      role,
		Token:     token,
		ExpiresAt: time.Now().Add(s.validity),
	}
	inv, err = s.repomanager.Invitations(s.db).Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("error creating invitation: %w", err)
	}

	body := mail.InvitationBody(s.appBaseURL, name, email, token)
	if err := s.notifier.Send(ctx, email, invitationSubject, body); err != nil {
		s.logger.Error(ctx, "invitation email delivery failed", "invitation_id", inv.ID, "error", err.Error())
		return inv, common.ErrNotificationFailed
	}

	return inv, nil
}

// List returns all invitations, newest first.
func (s *InvitationService) List(ctx context.Context) ([]*models.Invitation, error) {
	result, err := s.repomanager.Invitations(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing invitations: %w", err)
	}
	return result, nil
}

// GetByID returns one invitation or common.ErrNotFound.
func (s *InvitationService) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	inv, err := s.repomanager.Invitations(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error searching invitation: %w", err)
	}
	return inv, nil
}
