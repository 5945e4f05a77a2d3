package pgparcel

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'user',
  created_at TIMESTAMPTZ NOT NULL,
  last_logged_in TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS riders (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT NOT NULL DEFAULT '',
  age INT NOT NULL DEFAULT 0,
  region TEXT NOT NULL DEFAULT '',
  district TEXT NOT NULL DEFAULT '',
  nid TEXT NOT NULL DEFAULT '',
  bike_brand TEXT NOT NULL DEFAULT '',
  bike_registration TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  work_status TEXT NOT NULL DEFAULT 'available',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_riders_status ON riders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_riders_district_avail ON riders(district, status, work_status)`,
		`
CREATE TABLE IF NOT EXISTS parcels (
  id BIGSERIAL PRIMARY KEY,
  tracking_id TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  weight DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (weight >= 0),
  created_by TEXT NOT NULL,
  sender_name TEXT NOT NULL DEFAULT '',
  sender_contact TEXT NOT NULL DEFAULT '',
  sender_region TEXT NOT NULL DEFAULT '',
  sender_center TEXT NOT NULL,
  sender_address TEXT NOT NULL DEFAULT '',
  receiver_name TEXT NOT NULL DEFAULT '',
  receiver_contact TEXT NOT NULL DEFAULT '',
  receiver_region TEXT NOT NULL DEFAULT '',
  receiver_center TEXT NOT NULL,
  receiver_address TEXT NOT NULL DEFAULT '',
  cost DOUBLE PRECISION NOT NULL CHECK (cost >= 0),
  payment_status TEXT NOT NULL,
  delivery_status TEXT NOT NULL,
  cashout_status TEXT NOT NULL DEFAULT '',
  assigned_rider_id BIGINT NULL REFERENCES riders(id),
  assigned_rider_name TEXT NOT NULL DEFAULT '',
  assigned_rider_email TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL,
  picked_at TIMESTAMPTZ NULL,
  delivered_at TIMESTAMPTZ NULL,
  cashed_out_at TIMESTAMPTZ NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_created_by ON parcels(created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_assignable ON parcels(payment_status, delivery_status)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_rider ON parcels(assigned_rider_email, delivery_status)`,
		`
CREATE TABLE IF NOT EXISTS payments (
  id BIGSERIAL PRIMARY KEY,
  parcel_id BIGINT NOT NULL REFERENCES parcels(id),
  email TEXT NOT NULL,
  amount DOUBLE PRECISION NOT NULL CHECK (amount >= 0),
  transaction_id TEXT NOT NULL,
  paid_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_email_paid_at ON payments(email, paid_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS tracking_events (
  id BIGSERIAL PRIMARY KEY,
  tracking_id TEXT NOT NULL,
  status TEXT NOT NULL,
  details TEXT NOT NULL DEFAULT '',
  updated_by TEXT NOT NULL DEFAULT '',
  event_time TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_tracking_id_event_time ON tracking_events(tracking_id, event_time ASC)`,
		// Консьюмер kafka может доставить событие повторно — дедуп на уровне БД.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_tracking_events_dedup ON tracking_events(tracking_id, status, event_time)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
