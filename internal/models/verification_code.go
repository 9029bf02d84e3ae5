package models

import "time"

// VerificationCode is a pending code keyed by email, used by the database
// backed verification store. Rows past ExpiresAt are treated as absent.
// Attempts counts wrong guesses against the current code.
type VerificationCode struct {
	Email     string    `gorm:"primaryKey;size:255" json:"email"`
	Code      string    `gorm:"size:16;not null" json:"-"`
	Attempts  int       `gorm:"not null" json:"attempts"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
