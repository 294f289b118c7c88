package domain

import "time"

// User represents a registered account. PasswordHash never leaves the
// service layer.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Claims carried in an access token
type Claims struct {
	UserID string
	Email  string
}
