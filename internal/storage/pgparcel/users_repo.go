package pgparcel

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/models"
)

const userColumns = ` id, email, name, role, created_at, last_logged_in`

// UpsertUser создаёт пользователя при первом логине и обновляет
// last_logged_in при повторных. Роль при этом не трогается.
func (s *Storage) UpsertUser(ctx context.Context, email, name string, loginAt time.Time) (*models.User, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO users (email, name, role, created_at, last_logged_in)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (email)
DO UPDATE SET last_logged_in = EXCLUDED.last_logged_in
RETURNING`+userColumns, email, name, models.RoleUser, loginAt.UTC())
	u, err := scanUser(row)
	if err != nil {
		return nil, errors.Wrap(err, "upsert user")
	}
	return u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "user %s", email)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select user")
	}
	return u, nil
}

func (s *Storage) SearchUsers(ctx context.Context, emailPart string, limit int) ([]*models.User, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+userColumns+` FROM users WHERE email ILIKE '%' || $1 || '%'
ORDER BY email ASC LIMIT $2
`, emailPart, limit)
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}
	defer rows.Close()

	out := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) UpdateUserRole(ctx context.Context, id uint64, role string) (*models.User, error) {
	row := s.db.QueryRow(ctx, `UPDATE users SET role = $2 WHERE id = $1 RETURNING`+userColumns, id, role)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "user %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "update user role")
	}
	return u, nil
}

// UpdateUserRoleByEmail используется при одобрении заявки райдера.
func (s *Storage) UpdateUserRoleByEmail(ctx context.Context, email, role string) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET role = $2 WHERE email = $1`, email, role)
	return errors.Wrap(err, "update user role by email")
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.LastLoggedIn)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
