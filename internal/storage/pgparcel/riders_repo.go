package pgparcel

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/models"
)

const riderColumns = `
  id, name, email, phone, age, region, district,
  nid, bike_brand, bike_registration,
  status, work_status, created_at, updated_at`

func (s *Storage) CreateRider(ctx context.Context, in models.RiderApplyInput) (*models.Rider, error) {
	now := time.Now().UTC()
	r := &models.Rider{
		Name: in.Name, Email: in.Email, Phone: in.Phone, Age: in.Age,
		Region: in.Region, District: in.District,
		NID: in.NID, BikeBrand: in.BikeBrand, BikeRegNo: in.BikeRegNo,
		Status: models.RiderStatusPending, WorkStatus: models.RiderWorkAvailable,
		CreatedAt: now, UpdatedAt: now,
	}
	err := s.db.QueryRow(ctx, `
INSERT INTO riders (name, email, phone, age, region, district, nid, bike_brand, bike_registration, status, work_status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
RETURNING id
`, r.Name, r.Email, r.Phone, r.Age, r.Region, r.District, r.NID, r.BikeBrand, r.BikeRegNo,
		r.Status, r.WorkStatus, now).Scan(&r.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, errors.Wrapf(ErrConflict, "rider application for %s already exists", r.Email)
		}
		return nil, errors.Wrap(err, "insert rider")
	}
	return r, nil
}

func (s *Storage) GetRiderByID(ctx context.Context, id uint64) (*models.Rider, error) {
	row := s.db.QueryRow(ctx, `SELECT`+riderColumns+` FROM riders WHERE id = $1`, id)
	r, err := scanRider(row)
	if err == pgx.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "rider %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select rider")
	}
	return r, nil
}

func (s *Storage) GetRiderByEmail(ctx context.Context, email string) (*models.Rider, error) {
	row := s.db.QueryRow(ctx, `SELECT`+riderColumns+` FROM riders WHERE email = $1`, email)
	r, err := scanRider(row)
	if err == pgx.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "rider %s", email)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select rider")
	}
	return r, nil
}

func (s *Storage) ListRidersByStatus(ctx context.Context, status string) ([]*models.Rider, error) {
	rows, err := s.db.Query(ctx, `SELECT`+riderColumns+` FROM riders WHERE status = $1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, errors.Wrap(err, "select riders")
	}
	defer rows.Close()
	return scanRiders(rows)
}

// ListAvailableRiders — кандидаты на назначение: активные, свободные,
// в district'е отправителя.
func (s *Storage) ListAvailableRiders(ctx context.Context, district string) ([]*models.Rider, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+riderColumns+` FROM riders
WHERE status = $1 AND work_status = $2 AND district = $3
ORDER BY name ASC
`, models.RiderStatusActive, models.RiderWorkAvailable, district)
	if err != nil {
		return nil, errors.Wrap(err, "select available riders")
	}
	defer rows.Close()
	return scanRiders(rows)
}

func (s *Storage) UpdateRiderStatus(ctx context.Context, id uint64, status string) (*models.Rider, error) {
	row := s.db.QueryRow(ctx, `
UPDATE riders SET status = $2, updated_at = now() WHERE id = $1
RETURNING`+riderColumns, id, status)
	r, err := scanRider(row)
	if err == pgx.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "rider %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "update rider status")
	}
	return r, nil
}

func scanRider(row pgx.Row) (*models.Rider, error) {
	var r models.Rider
	err := row.Scan(
		&r.ID, &r.Name, &r.Email, &r.Phone, &r.Age, &r.Region, &r.District,
		&r.NID, &r.BikeBrand, &r.BikeRegNo,
		&r.Status, &r.WorkStatus, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRiders(rows pgx.Rows) ([]*models.Rider, error) {
	out := []*models.Rider{}
	for rows.Next() {
		r, err := scanRider(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan rider")
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
