package models

import (
	"fmt"
	"time"

	"expensetracker/internal/uuid"

	"gorm.io/gorm"
)

// Base carries the UUIDv7 key and timestamps shared by every table.
// Deleted rows are soft-deleted and hidden from default queries.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate assigns a fresh UUIDv7 unless the caller supplied one, in
// which case it must parse.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
		return nil
	}
	id, err := uuid.Parse(b.ID)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", b.ID, err)
	}
	b.ID = id
	return nil
}
