package models

import "time"

const (
	RiderStatusPending     = "pending"
	RiderStatusActive      = "active"
	RiderStatusRejected    = "rejected"
	RiderStatusDeactivated = "deactivated"
)

const (
	RiderWorkAvailable  = "available"
	RiderWorkInDelivery = "in_delivery"
)

type Rider struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Age      int    `json:"age"`
	Region   string `json:"region"`
	District string `json:"district"`

	NID       string `json:"nid"`
	BikeBrand string `json:"bike_brand"`
	BikeRegNo string `json:"bike_registration"`

	Status     string `json:"status"`
	WorkStatus string `json:"work_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RiderApplyInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Age      int    `json:"age"`
	Region   string `json:"region"`
	District string `json:"district"`

	NID       string `json:"nid"`
	BikeBrand string `json:"bike_brand"`
	BikeRegNo string `json:"bike_registration"`
}
