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
	"github.com/fitplan/fitplan/internal/server/models"
	"github.com/fitplan/fitplan/internal/server/repositories/repomanager"
)

// decoyDigest is a bcrypt digest of a throwaway value. Login verifies
// against it when no user matches the email, so the wrong-password and
// unknown-email paths cost about the same wall-clock time.
const decoyDigest = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AuthService orchestrates the credential flows: login, invite, register,
// logout, forgot/reset password, and refresh. Every failure is a typed
// sentinel from the common package; nothing here terminates the process.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	invitations *InvitationService
	resets      *PasswordResetService
	logger      logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService, invitations *InvitationService, resets *PasswordResetService, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		invitations: invitations,
		resets:      resets,
		logger:      logger,
	}
}

// AuthResult is what a successful login, registration, or refresh returns.
type AuthResult struct {
	User         models.UserSummary
	AccessToken  string
	RefreshToken string
}

// RegisterInput carries the registration request. Token is the invitation
// magic-link token; Role is accepted at the boundary but the stored
// invitation's role wins, so a client cannot escalate itself.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	IsNew    bool
	Role     string
	Token    string
}

// Login verifies the credentials and issues a session. Unknown email and
// wrong password return the same ErrInvalidCredentials with comparable
// timing.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = common.NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			cryptox.VerifyPassword(password, decoyDigest)
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrInternal
	}

	if !cryptox.VerifyPassword(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user.Summary(), AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Invite delegates to the InvitationService.
func (s *AuthService) Invite(ctx context.Context, email, name, phone string, isNew bool, role string) (*models.Invitation, error) {
	return s.invitations.Invite(ctx, email, name, phone, isNew, role)
}

// Register consumes the invitation and creates the user in one transaction:
// the conditional mark-used and the insert commit together or not at all,
// so a stolen token presented by two concurrent registrations yields
// exactly one user. On any later failure the consume rolls back and the
// invitation stays usable.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := common.NormalizeEmail(in.Email)

	// hash outside the transaction; bcrypt is deliberately slow
	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, common.ErrInternal
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		inv, err := s.repomanager.Invitations(tx).Consume(ctx, email, in.Token, time.Now())
		if err != nil {
			return err
		}

		role := inv.Role
		if role == "" {
			role = models.RoleUser
		}

		u := &models.User{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         in.Name,
			Phone:        in.Phone,
			PasswordHash: hash,
			Role:         role,
		}
		user, err = s.repomanager.Users(tx).Create(ctx, u)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidInvitation):
			return nil, common.ErrInvalidInvitation
		case errors.Is(err, common.ErrEmailAlreadyRegistered):
			return nil, common.ErrEmailAlreadyRegistered
		default:
			return nil, common.ErrInternal
		}
	}

	pair, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)

	return &AuthResult{User: user.Summary(), AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Logout revokes every live refresh token of the user behind email.
// Returns ErrNotFound when no such user exists.
func (s *AuthService) Logout(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return common.ErrInternal
	}

	return s.sessions.RevokeAllForUser(ctx, user.ID)
}

// ForgotPassword delegates to the PasswordResetService; it never fails
// in a caller-visible way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.resets.Request(ctx, email)
}

// ResetPassword delegates to the PasswordResetService.
func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	return s.resets.Reset(ctx, email, token, newPassword)
}

// Refresh mints a new access token for a live refresh token. The presented
// refresh token stays valid; it is echoed back unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	user, access, err := s.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user.Summary(), AccessToken: access, RefreshToken: refreshToken}, nil
}
