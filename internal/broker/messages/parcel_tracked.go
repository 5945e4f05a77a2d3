package messages

import "time"

// ParcelTracked публикуется сервисом посылок на каждый переход
// статуса. Консьюмер в parcel-api дописывает событие в ленту
// трекинга (read-model для GET /trackings/{trackingID}).
type ParcelTracked struct {
	TrackingID string    `json:"tracking_id"`
	Status     string    `json:"status"`
	Details    string    `json:"details,omitempty"`
	UpdatedBy  string    `json:"updated_by,omitempty"`
	EventTime  time.Time `json:"event_time"`
}
