package users

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/models"
)

var ErrBadRole = errors.New("users: unknown role")

const searchLimit = 20

type Repository interface {
	UpsertUser(ctx context.Context, email, name string, loginAt time.Time) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SearchUsers(ctx context.Context, emailPart string, limit int) ([]*models.User, error)
	UpdateUserRole(ctx context.Context, id uint64, role string) (*models.User, error)
}

type Service struct {
	repo Repository

	now func() time.Time
}

func New(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// RecordLogin создаёт пользователя при первом входе и обновляет
// last_logged_in при повторных. Роль существующего пользователя
// никогда не затирается.
func (s *Service) RecordLogin(ctx context.Context, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("email is required")
	}
	return s.repo.UpsertUser(ctx, email, name, s.now())
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}
	return s.repo.GetUserByEmail(ctx, strings.ToLower(email))
}

// Role отдаёт роль по email; неизвестный пользователь — просто user.
func (s *Service) Role(ctx context.Context, email string) string {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return models.RoleUser
	}
	return u.Role
}

func (s *Service) Search(ctx context.Context, emailPart string) ([]*models.User, error) {
	emailPart = strings.TrimSpace(emailPart)
	if emailPart == "" {
		return nil, errors.New("search query is required")
	}
	return s.repo.SearchUsers(ctx, emailPart, searchLimit)
}

func (s *Service) SetRole(ctx context.Context, id uint64, role string) (*models.User, error) {
	switch role {
	case models.RoleUser, models.RoleRider, models.RoleAdmin:
	default:
		return nil, errors.Wrapf(ErrBadRole, "got %q", role)
	}
	return s.repo.UpdateUserRole(ctx, id, role)
}
