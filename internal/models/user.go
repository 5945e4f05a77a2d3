package models

import "time"

const (
	RoleUser  = "user"
	RoleRider = "rider"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	LastLoggedIn time.Time `json:"last_logged_in"`
}
