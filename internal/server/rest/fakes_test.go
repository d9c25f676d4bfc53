package rest

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fitplan/fitplan/internal/common"
	"github.com/fitplan/fitplan/internal/dbx"
	"github.com/fitplan/fitplan/internal/logging"
	"github.com/fitplan/fitplan/internal/server/config"
	"github.com/fitplan/fitplan/internal/server/models"
	"github.com/fitplan/fitplan/internal/server/repositories/invitations"
	"github.com/fitplan/fitplan/internal/server/repositories/refreshtokens"
	"github.com/fitplan/fitplan/internal/server/repositories/resettokens"
	"github.com/fitplan/fitplan/internal/server/repositories/users"
	"github.com/fitplan/fitplan/internal/server/services"
)

// memManager is a mutex-guarded in-memory RepositoryManager. It backs the
// handler tests so they exercise the real services and error mapping
// without a database.
type memManager struct {
	mu          sync.Mutex
	users       map[string]*models.User
	invitations map[string]*models.Invitation
	resets      map[string]*models.PasswordResetToken
	refresh     map[string]*models.RefreshToken
}

func newMemManager() *memManager {
	return &memManager{
		users:       map[string]*models.User{},
		invitations: map[string]*models.Invitation{},
		resets:      map[string]*models.PasswordResetToken{},
		refresh:     map[string]*models.RefreshToken{},
	}
}

func (m *memManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *memManager) Users(db dbx.DBTX) users.Repository                  { return (*memUsers)(m) }
func (m *memManager) Invitations(db dbx.DBTX) invitations.Repository      { return (*memInvitations)(m) }
func (m *memManager) ResetTokens(db dbx.DBTX) resettokens.Repository      { return (*memResets)(m) }
func (m *memManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository  { return (*memRefresh)(m) }

type memUsers memManager

func (r *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, common.ErrEmailAlreadyRegistered
		}
	}
	cp := *user
	cp.CreatedAt = time.Now()
	r.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *memUsers) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return common.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *memUsers) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUsers) List(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

type memInvitations memManager

func (r *memInvitations) Create(ctx context.Context, inv *models.Invitation) (*models.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	cp.CreatedAt = time.Now()
	r.invitations[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memInvitations) Consume(ctx context.Context, email, token string, now time.Time) (*models.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invitations {
		if inv.Email == email && inv.Token == token && !inv.Used && now.Before(inv.ExpiresAt) {
			inv.Used = true
			cp := *inv
			return &cp, nil
		}
	}
	return nil, common.ErrInvalidInvitation
}

func (r *memInvitations) List(ctx context.Context) ([]*models.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Invitation, 0, len(r.invitations))
	for _, inv := range r.invitations {
		cp := *inv
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memInvitations) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invitations[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

type memResets memManager

func (r *memResets) Create(ctx context.Context, token *models.PasswordResetToken) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	cp.CreatedAt = time.Now()
	r.resets[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memResets) Consume(ctx context.Context, userID, token string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.resets {
		if row.UserID == userID && row.Token == token && !row.Used && now.Before(row.ExpiresAt) {
			row.Used = true
			return nil
		}
	}
	return common.ErrInvalidOrExpiredToken
}

type memRefresh memManager

func (r *memRefresh) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	cp.CreatedAt = time.Now()
	r.refresh[cp.Token] = &cp
	out := cp
	return &out, nil
}

func (r *memRefresh) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.refresh[token]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *memRefresh) RevokeAllForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, row := range r.refresh {
		if row.UserID == userID && !row.Revoked && now.Before(row.ExpiresAt) {
			row.Revoked = true
		}
	}
	return nil
}

type stubNotifier struct{ fail error }

func (n *stubNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	return n.fail
}

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (nopLogger) With(args ...any) logging.Logger                    { return nopLogger{} }

const testSecret = "test-secret"

// newTestServer wires a Server over the in-memory manager. The sqlmock db
// only carries Begin/Commit/Rollback traffic; set unordered matching so
// handler tests do not have to script it.
func newTestServer(t *testing.T) (*Server, *memManager) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret

	m := newMemManager()
	notifier := &stubNotifier{}
	logger := nopLogger{}

	sessions := services.NewSessionService(db, m, cfg)
	invs := services.NewInvitationService(db, m, notifier, logger, cfg)
	resets := services.NewPasswordResetService(db, m, notifier, logger, cfg)
	auth := services.NewAuthService(db, m, sessions, invs, resets, logger)
	usersSvc := services.NewUserService(db, m)

	srv := NewServer(":0", logger, auth, usersSvc, invs, cfg.SecretKey)
	return srv, m
}
