package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the id and timestamps shared by every content record. Ids are
// generated in BeforeCreate so the same schema works on postgres and sqlite.
type Base struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" gorm:"not null"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b Base) GetID() uuid.UUID {
	return b.ID
}

// ResetIdentity clears the fields the database owns so a submitted payload
// cannot choose its own id or timestamps.
func (b *Base) ResetIdentity() {
	b.ID = uuid.Nil
	b.CreatedAt = time.Time{}
	b.UpdatedAt = time.Time{}
}
