package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"moneta/internal/logger"
	"moneta/internal/models"
)

// Audited actions.
const (
	ActionRegistrationConfirmed = "registration_confirmed"
	ActionPasswordReset         = "password_reset"
	ActionExpenseDeleted        = "expense_deleted"
	ActionCategoryCreated       = "category_created"
	ActionCategoryUpdated       = "category_updated"
	ActionCategoryDeleted       = "category_deleted"
)

// AuditEvent describes one sensitive operation.
type AuditEvent struct {
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	Changes      map[string]interface{}
}

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record stores an audit event. Like code delivery it is best effort: a
// failed write is logged and the operation that triggered it still succeeds.
func (s *auditService) Record(event AuditEvent) {
	entry := &models.AuditLog{
		ActorID:      event.ActorID,
		Action:       event.Action,
		ResourceType: event.ResourceType,
		ResourceID:   event.ResourceID,
	}
	if len(event.Changes) > 0 {
		data, err := json.Marshal(event.Changes)
		if err != nil {
			logger.Named("audit").Warnw("audit changes not serialisable", "action", event.Action, "error", err)
		} else {
			entry.Changes = string(data)
		}
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Named("audit").Errorw("failed to write audit entry",
			"error", err,
			"actor_id", event.ActorID,
			"action", event.Action,
			"resource_id", event.ResourceID,
		)
	}
}
