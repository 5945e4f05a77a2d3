package models

import "time"

const (
	ParcelTypeDocument    = "document"
	ParcelTypeNonDocument = "non-document"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Жизненный цикл посылки. cancelled — альтернативная терминальная ветка.
const (
	DeliveryStatusNotCollected  = "not_collected"
	DeliveryStatusRiderAssigned = "rider_assigned"
	DeliveryStatusInTransit     = "in_transit"
	DeliveryStatusDelivered     = "delivered"
	DeliveryStatusCancelled     = "cancelled"
)

const CashoutStatusCashedOut = "cashed_out"

type Parcel struct {
	ID         uint64 `json:"id"`
	TrackingID string `json:"tracking_id"`

	Type   string  `json:"type"`
	Title  string  `json:"title"`
	Weight float64 `json:"weight"`

	CreatedBy string `json:"created_by"`

	SenderName      string `json:"sender_name"`
	SenderContact   string `json:"sender_contact"`
	SenderRegion    string `json:"sender_region"`
	SenderCenter    string `json:"sender_center"`
	SenderAddress   string `json:"sender_address"`
	ReceiverName    string `json:"receiver_name"`
	ReceiverContact string `json:"receiver_contact"`
	ReceiverRegion  string `json:"receiver_region"`
	ReceiverCenter  string `json:"receiver_center"`
	ReceiverAddress string `json:"receiver_address"`

	// Cost выставляется ровно один раз при создании (pricing engine)
	// и дальше никогда не пересчитывается.
	Cost float64 `json:"cost"`

	PaymentStatus  string `json:"payment_status"`
	DeliveryStatus string `json:"delivery_status"`
	CashoutStatus  string `json:"cashout_status,omitempty"`

	AssignedRiderID    uint64 `json:"assigned_rider_id,omitempty"`
	AssignedRiderName  string `json:"assigned_rider_name,omitempty"`
	AssignedRiderEmail string `json:"assigned_rider_email,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	PickedAt    *time.Time `json:"picked_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CashedOutAt *time.Time `json:"cashed_out_at,omitempty"`
}

// SameDistrict reports whether sender and receiver service centers are
// the same district. Exact, case-sensitive identifier match.
func (p *Parcel) SameDistrict() bool {
	return p.SenderCenter == p.ReceiverCenter
}

type ParcelCreateInput struct {
	Type   string  `json:"type"`
	Title  string  `json:"title"`
	Weight float64 `json:"weight"`

	SenderName      string `json:"sender_name"`
	SenderContact   string `json:"sender_contact"`
	SenderRegion    string `json:"sender_region"`
	SenderCenter    string `json:"sender_center"`
	SenderAddress   string `json:"sender_address"`
	ReceiverName    string `json:"receiver_name"`
	ReceiverContact string `json:"receiver_contact"`
	ReceiverRegion  string `json:"receiver_region"`
	ReceiverCenter  string `json:"receiver_center"`
	ReceiverAddress string `json:"receiver_address"`
}

type ParcelFilter struct {
	CreatedBy      string
	PaymentStatus  string
	DeliveryStatus string
}
