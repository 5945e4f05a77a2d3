package pgparcel

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/models"
)

const parcelColumns = `
  id, tracking_id, type, title, weight, created_by,
  sender_name, sender_contact, sender_region, sender_center, sender_address,
  receiver_name, receiver_contact, receiver_region, receiver_center, receiver_address,
  cost, payment_status, delivery_status, cashout_status,
  assigned_rider_id, assigned_rider_name, assigned_rider_email,
  created_at, picked_at, delivered_at, cashed_out_at`

func (s *Storage) CreateParcel(ctx context.Context, p *models.Parcel) (*models.Parcel, error) {
	err := s.db.QueryRow(ctx, `
INSERT INTO parcels (
  tracking_id, type, title, weight, created_by,
  sender_name, sender_contact, sender_region, sender_center, sender_address,
  receiver_name, receiver_contact, receiver_region, receiver_center, receiver_address,
  cost, payment_status, delivery_status, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
RETURNING id
`,
		p.TrackingID, p.Type, p.Title, p.Weight, p.CreatedBy,
		p.SenderName, p.SenderContact, p.SenderRegion, p.SenderCenter, p.SenderAddress,
		p.ReceiverName, p.ReceiverContact, p.ReceiverRegion, p.ReceiverCenter, p.ReceiverAddress,
		p.Cost, p.PaymentStatus, p.DeliveryStatus, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return nil, errors.Wrap(err, "insert parcel")
	}
	return p, nil
}

func (s *Storage) GetParcelByID(ctx context.Context, id uint64) (*models.Parcel, error) {
	row := s.db.QueryRow(ctx, `SELECT`+parcelColumns+` FROM parcels WHERE id = $1`, id)
	p, err := scanParcel(row)
	if err == pgx.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "parcel %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select parcel")
	}
	return p, nil
}

func (s *Storage) ListParcels(ctx context.Context, f models.ParcelFilter) ([]*models.Parcel, error) {
	q := `SELECT` + parcelColumns + ` FROM parcels WHERE 1=1`
	args := []any{}
	if f.CreatedBy != "" {
		args = append(args, f.CreatedBy)
		q += ` AND created_by = $` + itoa(len(args))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		q += ` AND payment_status = $` + itoa(len(args))
	}
	if f.DeliveryStatus != "" {
		args = append(args, f.DeliveryStatus)
		q += ` AND delivery_status = $` + itoa(len(args))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select parcels")
	}
	defer rows.Close()
	return scanParcels(rows)
}

// ListRiderParcels возвращает посылки райдера: delivered=false — то, что
// сейчас в работе (rider_assigned/in_transit), delivered=true — завершённые.
func (s *Storage) ListRiderParcels(ctx context.Context, riderEmail string, delivered bool) ([]*models.Parcel, error) {
	q := `SELECT` + parcelColumns + ` FROM parcels WHERE assigned_rider_email = $1`
	if delivered {
		q += ` AND delivery_status = $2 ORDER BY delivered_at DESC`
	} else {
		q += ` AND delivery_status <> $2 AND delivery_status <> $3 ORDER BY created_at DESC`
	}

	args := []any{riderEmail, models.DeliveryStatusDelivered}
	if !delivered {
		args = append(args, models.DeliveryStatusCancelled)
	}
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select rider parcels")
	}
	defer rows.Close()
	return scanParcels(rows)
}

func (s *Storage) DeleteParcel(ctx context.Context, id uint64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM parcels WHERE id = $1 AND payment_status = $2`,
		id, models.PaymentStatusUnpaid)
	if err != nil {
		return errors.Wrap(err, "delete parcel")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrConflict, "parcel %d is not deletable", id)
	}
	return nil
}

func (s *Storage) CancelParcel(ctx context.Context, id uint64) error {
	tag, err := s.db.Exec(ctx, `
UPDATE parcels SET delivery_status = $2
WHERE id = $1 AND delivery_status = $3
`, id, models.DeliveryStatusCancelled, models.DeliveryStatusNotCollected)
	if err != nil {
		return errors.Wrap(err, "cancel parcel")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrConflict, "parcel %d is not cancellable", id)
	}
	return nil
}

// AssignRider атомарно: посылка paid+not_collected получает райдера,
// райдер уходит в in_delivery.
func (s *Storage) AssignRider(ctx context.Context, parcelID uint64, rider *models.Rider) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE parcels
SET delivery_status = $2, assigned_rider_id = $3, assigned_rider_name = $4, assigned_rider_email = $5
WHERE id = $1 AND payment_status = $6 AND delivery_status = $7
`, parcelID, models.DeliveryStatusRiderAssigned, rider.ID, rider.Name, rider.Email,
		models.PaymentStatusPaid, models.DeliveryStatusNotCollected)
	if err != nil {
		return errors.Wrap(err, "assign parcel")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrConflict, "parcel %d is not assignable", parcelID)
	}

	_, err = tx.Exec(ctx, `UPDATE riders SET work_status = $2, updated_at = now() WHERE id = $1`,
		rider.ID, models.RiderWorkInDelivery)
	if err != nil {
		return errors.Wrap(err, "mark rider busy")
	}

	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

// MarkInTransit: rider_assigned -> in_transit, проставляет picked_at.
func (s *Storage) MarkInTransit(ctx context.Context, parcelID uint64, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
UPDATE parcels SET delivery_status = $2, picked_at = $3
WHERE id = $1 AND delivery_status = $4
`, parcelID, models.DeliveryStatusInTransit, at.UTC(), models.DeliveryStatusRiderAssigned)
	if err != nil {
		return errors.Wrap(err, "mark in transit")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrConflict, "parcel %d is not pickable", parcelID)
	}
	return nil
}

// MarkDelivered: in_transit -> delivered, проставляет delivered_at и
// освобождает райдера.
func (s *Storage) MarkDelivered(ctx context.Context, parcelID uint64, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var riderID *uint64
	err = tx.QueryRow(ctx, `
UPDATE parcels SET delivery_status = $2, delivered_at = $3
WHERE id = $1 AND delivery_status = $4
RETURNING assigned_rider_id
`, parcelID, models.DeliveryStatusDelivered, at.UTC(), models.DeliveryStatusInTransit).Scan(&riderID)
	if err == pgx.ErrNoRows {
		return errors.Wrapf(ErrConflict, "parcel %d is not deliverable", parcelID)
	}
	if err != nil {
		return errors.Wrap(err, "mark delivered")
	}

	if riderID != nil {
		_, err = tx.Exec(ctx, `UPDATE riders SET work_status = $2, updated_at = now() WHERE id = $1`,
			*riderID, models.RiderWorkAvailable)
		if err != nil {
			return errors.Wrap(err, "free rider")
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

// CashoutParcel одноразовый: delivered и ещё не cashed_out. Повторный
// вызов — ErrConflict, заработок никогда не возвращается в pending.
func (s *Storage) CashoutParcel(ctx context.Context, parcelID uint64, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
UPDATE parcels SET cashout_status = $2, cashed_out_at = $3
WHERE id = $1 AND delivery_status = $4 AND cashout_status = ''
`, parcelID, models.CashoutStatusCashedOut, at.UTC(), models.DeliveryStatusDelivered)
	if err != nil {
		return errors.Wrap(err, "cashout parcel")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrConflict, "parcel %d is not cashoutable", parcelID)
	}
	return nil
}

func scanParcel(row pgx.Row) (*models.Parcel, error) {
	var p models.Parcel
	var riderID *uint64
	var pickedAt, deliveredAt, cashedOutAt *time.Time
	err := row.Scan(
		&p.ID, &p.TrackingID, &p.Type, &p.Title, &p.Weight, &p.CreatedBy,
		&p.SenderName, &p.SenderContact, &p.SenderRegion, &p.SenderCenter, &p.SenderAddress,
		&p.ReceiverName, &p.ReceiverContact, &p.ReceiverRegion, &p.ReceiverCenter, &p.ReceiverAddress,
		&p.Cost, &p.PaymentStatus, &p.DeliveryStatus, &p.CashoutStatus,
		&riderID, &p.AssignedRiderName, &p.AssignedRiderEmail,
		&p.CreatedAt, &pickedAt, &deliveredAt, &cashedOutAt,
	)
	if err != nil {
		return nil, err
	}
	if riderID != nil {
		p.AssignedRiderID = *riderID
	}
	p.PickedAt = pickedAt
	p.DeliveredAt = deliveredAt
	p.CashedOutAt = cashedOutAt
	return &p, nil
}

func scanParcels(rows pgx.Rows) ([]*models.Parcel, error) {
	out := []*models.Parcel{}
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan parcel")
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
