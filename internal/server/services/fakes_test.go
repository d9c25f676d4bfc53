package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fitplan/fitplan/internal/common"
	"github.com/fitplan/fitplan/internal/cryptox"
	"github.com/fitplan/fitplan/internal/dbx"
	"github.com/fitplan/fitplan/internal/logging"
	"github.com/fitplan/fitplan/internal/server/config"
	"github.com/fitplan/fitplan/internal/server/models"
	"github.com/fitplan/fitplan/internal/server/repositories/invitations"
	"github.com/fitplan/fitplan/internal/server/repositories/refreshtokens"
	"github.com/fitplan/fitplan/internal/server/repositories/resettokens"
	"github.com/fitplan/fitplan/internal/server/repositories/users"
)

// memStore is an in-memory backing store shared by the fake repositories.
// All methods take the mutex, so Consume behaves like the real conditional
// update: under concurrent callers exactly one wins.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*models.User       // by id
	invitations map[string]*models.Invitation // by id
	resets      map[string]*models.PasswordResetToken
	refresh     map[string]*models.RefreshToken // by token

	usersErr error // when set, every user operation fails with it
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*models.User{},
		invitations: map[string]*models.Invitation{},
		resets:      map[string]*models.PasswordResetToken{},
		refresh:     map[string]*models.RefreshToken{},
	}
}

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.usersErr != nil {
		return nil, r.s.usersErr
	}
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return nil, common.ErrEmailAlreadyRegistered
		}
	}
	cp := *user
	cp.CreatedAt = time.Now()
	r.s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.usersErr != nil {
		return nil, r.s.usersErr
	}
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return common.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

type fakeInvitationRepo struct{ s *memStore }

func (r *fakeInvitationRepo) Create(ctx context.Context, inv *models.Invitation) (*models.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *inv
	cp.CreatedAt = time.Now()
	r.s.invitations[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeInvitationRepo) Consume(ctx context.Context, email, token string, now time.Time) (*models.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invitations {
		if inv.Email == email && inv.Token == token && !inv.Used && now.Before(inv.ExpiresAt) {
			inv.Used = true
			cp := *inv
			return &cp, nil
		}
	}
	return nil, common.ErrInvalidInvitation
}

func (r *fakeInvitationRepo) List(ctx context.Context) ([]*models.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Invitation, 0, len(r.s.invitations))
	for _, inv := range r.s.invitations {
		cp := *inv
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeInvitationRepo) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inv, ok := r.s.invitations[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

type fakeResetRepo struct{ s *memStore }

func (r *fakeResetRepo) Create(ctx context.Context, token *models.PasswordResetToken) (*models.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *token
	cp.CreatedAt = time.Now()
	r.s.resets[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeResetRepo) Consume(ctx context.Context, userID, token string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.resets {
		if row.UserID == userID && row.Token == token && !row.Used && now.Before(row.ExpiresAt) {
			row.Used = true
			return nil
		}
	}
	return common.ErrInvalidOrExpiredToken
}

type fakeRefreshRepo struct{ s *memStore }

func (r *fakeRefreshRepo) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *token
	cp.CreatedAt = time.Now()
	r.s.refresh[cp.Token] = &cp
	out := cp
	return &out, nil
}

func (r *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.refresh[token]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeRefreshRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, row := range r.s.refresh {
		if row.UserID == userID && !row.Revoked && now.Before(row.ExpiresAt) {
			row.Revoked = true
		}
	}
	return nil
}

// fakeRepoManager hands out repositories over the shared memStore. The db
// handle is ignored: the fakes carry no SQL.
type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                  { return &fakeUserRepo{s: m.s} }
func (m *fakeRepoManager) Invitations(db dbx.DBTX) invitations.Repository {
	return &fakeInvitationRepo{s: m.s}
}
func (m *fakeRepoManager) ResetTokens(db dbx.DBTX) resettokens.Repository {
	return &fakeResetRepo{s: m.s}
}
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return &fakeRefreshRepo{s: m.s}
}

// fakeNotifier records outgoing mail and can be told to fail.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (n *fakeNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) last() sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (nopLogger) With(args ...any) logging.Logger                    { return nopLogger{} }

// testEnv bundles everything a service test needs. The sqlmock db only sees
// Begin/Commit/Rollback: all statements run against the fakes.
type testEnv struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	store    *memStore
	notifier *fakeNotifier
	cfg      *config.Config

	auth        *AuthService
	sessions    *SessionService
	invitations *InvitationService
	resets      *PasswordResetService
	users       *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"

	store := newMemStore()
	m := &fakeRepoManager{s: store}
	notifier := &fakeNotifier{}
	logger := nopLogger{}

	sessions := NewSessionService(db, m, cfg)
	invs := NewInvitationService(db, m, notifier, logger, cfg)
	resets := NewPasswordResetService(db, m, notifier, logger, cfg)
	auth := NewAuthService(db, m, sessions, invs, resets, logger)
	usersSvc := NewUserService(db, m)

	return &testEnv{
		db:          db,
		mock:        mock,
		store:       store,
		notifier:    notifier,
		cfg:         cfg,
		auth:        auth,
		sessions:    sessions,
		invitations: invs,
		resets:      resets,
		users:       usersSvc,
	}
}

// addUser seeds a user with a real bcrypt hash of password.
func (e *testEnv) addUser(t *testing.T, id, email, password, role string) *models.User {
	t.Helper()
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	u := &models.User{ID: id, Email: email, Name: "Test User", PasswordHash: hash, Role: role, CreatedAt: time.Now()}
	e.store.mu.Lock()
	e.store.users[id] = u
	e.store.mu.Unlock()
	return u
}

// addInvitation seeds a live invitation.
func (e *testEnv) addInvitation(id, email, token, role string, expiresAt time.Time) *models.Invitation {
	inv := &models.Invitation{
		ID: id, Email: email, Token: token, Role: role,
		CreatedAt: time.Now(), ExpiresAt: expiresAt,
	}
	e.store.mu.Lock()
	e.store.invitations[id] = inv
	e.store.mu.Unlock()
	return inv
}
