package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fitplan/fitplan/internal/common"
	"github.com/fitplan/fitplan/internal/server/models"
	"github.com/fitplan/fitplan/internal/server/repositories/repomanager"
)

// UserService exposes the administrative user operations: listing,
// fetching, and removal. Password hashes never leave this layer.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

// List returns all users as summaries, oldest first.
func (s *UserService) List(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	result := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		result = append(result, u.Summary())
	}
	return result, nil
}

// Get returns one user summary or common.ErrNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserSummary, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	summary := user.Summary()
	return &summary, nil
}

// Delete removes a user. The store cascades the user's reset and refresh
// tokens away with the row.
func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.repomanager.Users(s.db).Delete(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error deleting user: %w", err)
	}
	return nil
}
