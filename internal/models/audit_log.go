package models

import (
	"time"

	"moneta/internal/uuid"

	"gorm.io/gorm"
)

// AuditLog is an append-only record of a sensitive operation: who did it,
// what it touched and, for updates, which fields changed.
type AuditLog struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID      string    `gorm:"type:uuid;not null;index" json:"actor_id"`
	Action       string    `gorm:"size:64;not null;index" json:"action"`
	ResourceType string    `gorm:"size:32;not null" json:"resource_type"`
	ResourceID   string    `gorm:"size:36" json:"resource_id"`
	Changes      string    `gorm:"type:text" json:"changes,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate assigns the entry ID.
func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New()
	}
	return nil
}
