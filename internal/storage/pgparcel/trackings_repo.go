package pgparcel

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/models"
)

// AppendTrackingEvent идемпотентен: дубликаты от kafka-консьюмера
// гасятся уникальным индексом.
func (s *Storage) AppendTrackingEvent(ctx context.Context, ev *models.TrackingEvent) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
INSERT INTO tracking_events (tracking_id, status, details, updated_by, event_time, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (tracking_id, status, event_time) DO NOTHING
`, ev.TrackingID, ev.Status, ev.Details, ev.UpdatedBy, ev.EventTime.UTC(), now)
	return errors.Wrap(err, "insert tracking event")
}

func (s *Storage) ListTrackingEvents(ctx context.Context, trackingID string) ([]*models.TrackingEvent, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, tracking_id, status, details, updated_by, event_time, created_at
FROM tracking_events WHERE tracking_id = $1 ORDER BY event_time ASC
`, trackingID)
	if err != nil {
		return nil, errors.Wrap(err, "select tracking events")
	}
	defer rows.Close()

	out := []*models.TrackingEvent{}
	for rows.Next() {
		var ev models.TrackingEvent
		if err := rows.Scan(&ev.ID, &ev.TrackingID, &ev.Status, &ev.Details, &ev.UpdatedBy, &ev.EventTime, &ev.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan tracking event")
		}
		out = append(out, &ev)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
