package models

import "time"

type Payment struct {
	ID            uint64    `json:"id"`
	ParcelID      uint64    `json:"parcel_id"`
	Email         string    `json:"email"`
	Amount        float64   `json:"amount"`
	TransactionID string    `json:"transaction_id"`
	PaidAt        time.Time `json:"paid_at"`
}
