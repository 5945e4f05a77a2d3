package models

import "time"

// Статусы событий трекинга (лента по tracking_id, можно расширять).
const (
	TrackingEventCreated         = "parcel_created"
	TrackingEventPaymentReceived = "payment_received"
	TrackingEventRiderAssigned   = "rider_assigned"
	TrackingEventInTransit       = "in_transit"
	TrackingEventDelivered       = "delivered"
	TrackingEventCancelled       = "cancelled"
)

type TrackingEvent struct {
	ID         uint64    `json:"id"`
	TrackingID string    `json:"tracking_id"`
	Status     string    `json:"status"`
	Details    string    `json:"details"`
	UpdatedBy  string    `json:"updated_by"`
	EventTime  time.Time `json:"event_time"`
	CreatedAt  time.Time `json:"created_at"`
}
