package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity actions
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionBulkDelete = "bulk_delete"
	ActionLogin      = "login"
	ActionUpload     = "upload"
)

// ActivityLog is one append-only audit entry written by a mutating request
type ActivityLog struct {
	ID          uuid.UUID      `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Action      string         `json:"action" db:"action" gorm:"type:text;not null;index"`
	EntityType  string         `json:"entityType" db:"entity_type" gorm:"type:text;not null;index"`
	EntityID    *uuid.UUID     `json:"entityId,omitempty" db:"entity_id" gorm:"type:uuid"`
	Description string         `json:"description" db:"description" gorm:"type:text;not null"`
	Metadata    datatypes.JSON `json:"metadata,omitempty" db:"metadata"`
	UserID      *uuid.UUID     `json:"userId,omitempty" db:"user_id" gorm:"type:uuid"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at" gorm:"not null;index"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
