package models

import (
	"time"

	"moneta/internal/uuid"

	"gorm.io/gorm"
)

// Base carries the primary key and timestamps shared by the mutable tables.
// Only expenses are soft-deleted; they embed their own DeletedAt.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a time-ordered ID to records created without one.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
