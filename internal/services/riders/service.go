package riders

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/models"
)

var ErrBadStatus = errors.New("riders: unknown rider status")

type Repository interface {
	CreateRider(ctx context.Context, in models.RiderApplyInput) (*models.Rider, error)
	GetRiderByID(ctx context.Context, id uint64) (*models.Rider, error)
	GetRiderByEmail(ctx context.Context, email string) (*models.Rider, error)
	ListRidersByStatus(ctx context.Context, status string) ([]*models.Rider, error)
	ListAvailableRiders(ctx context.Context, district string) ([]*models.Rider, error)
	UpdateRiderStatus(ctx context.Context, id uint64, status string) (*models.Rider, error)

	UpdateUserRoleByEmail(ctx context.Context, email, role string) error
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Apply регистрирует заявку райдера. Повторная заявка с тем же email
// отдаёт конфликт из хранилища.
func (s *Service) Apply(ctx context.Context, in models.RiderApplyInput) (*models.Rider, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case in.Name == "":
		return nil, errors.New("name is required")
	case in.Email == "":
		return nil, errors.New("email is required")
	case in.Age < 18:
		return nil, errors.New("rider must be at least 18")
	case in.Region == "" || in.District == "":
		return nil, errors.New("region and district are required")
	}
	return s.repo.CreateRider(ctx, in)
}

func (s *Service) Get(ctx context.Context, id uint64) (*models.Rider, error) {
	if id == 0 {
		return nil, errors.New("rider id is required")
	}
	return s.repo.GetRiderByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.Rider, error) {
	if email == "" {
		return nil, errors.New("rider email is required")
	}
	return s.repo.GetRiderByEmail(ctx, email)
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]*models.Rider, error) {
	if !validStatus(status) {
		return nil, errors.Wrapf(ErrBadStatus, "got %q", status)
	}
	return s.repo.ListRidersByStatus(ctx, status)
}

// ListAvailable — активные свободные райдеры; district сужает выборку
// до района получателя при назначении.
func (s *Service) ListAvailable(ctx context.Context, district string) ([]*models.Rider, error) {
	return s.repo.ListAvailableRiders(ctx, district)
}

// SetStatus переводит заявку/райдера в новый статус и синхронизирует
// роль пользователя: active даёт роль rider, deactivated и rejected
// возвращают user. Роль меняется после статуса — при падении роли
// статус уже записан и операцию можно безопасно повторить.
func (s *Service) SetStatus(ctx context.Context, id uint64, status string) (*models.Rider, error) {
	if !validStatus(status) {
		return nil, errors.Wrapf(ErrBadStatus, "got %q", status)
	}

	r, err := s.repo.UpdateRiderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	switch status {
	case models.RiderStatusActive:
		err = s.repo.UpdateUserRoleByEmail(ctx, r.Email, models.RoleRider)
	case models.RiderStatusDeactivated, models.RiderStatusRejected:
		err = s.repo.UpdateUserRoleByEmail(ctx, r.Email, models.RoleUser)
	}
	if err != nil {
		return nil, errors.Wrap(err, "sync user role")
	}
	return r, nil
}

func validStatus(status string) bool {
	switch status {
	case models.RiderStatusPending, models.RiderStatusActive,
		models.RiderStatusRejected, models.RiderStatusDeactivated:
		return true
	}
	return false
}
