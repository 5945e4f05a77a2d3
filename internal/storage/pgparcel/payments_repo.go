package pgparcel

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/models"
)

// RecordPayment атомарно фиксирует платёж и переводит посылку в paid.
// Посылка должна быть unpaid — повторная оплата это ErrConflict.
func (s *Storage) RecordPayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE parcels SET payment_status = $2
WHERE id = $1 AND payment_status = $3
`, p.ParcelID, models.PaymentStatusPaid, models.PaymentStatusUnpaid)
	if err != nil {
		return nil, errors.Wrap(err, "mark parcel paid")
	}
	if tag.RowsAffected() == 0 {
		return nil, errors.Wrapf(ErrConflict, "parcel %d is not payable", p.ParcelID)
	}

	err = tx.QueryRow(ctx, `
INSERT INTO payments (parcel_id, email, amount, transaction_id, paid_at)
VALUES ($1,$2,$3,$4,$5)
RETURNING id
`, p.ParcelID, p.Email, p.Amount, p.TransactionID, p.PaidAt.UTC()).Scan(&p.ID)
	if err != nil {
		return nil, errors.Wrap(err, "insert payment")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return p, nil
}

func (s *Storage) ListPaymentsByEmail(ctx context.Context, email string) ([]*models.Payment, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, parcel_id, email, amount, transaction_id, paid_at
FROM payments WHERE email = $1 ORDER BY paid_at DESC
`, email)
	if err != nil {
		return nil, errors.Wrap(err, "select payments")
	}
	defer rows.Close()

	out := []*models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.ParcelID, &p.Email, &p.Amount, &p.TransactionID, &p.PaidAt); err != nil {
			return nil, errors.Wrap(err, "scan payment")
		}
		out = append(out, &p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
