package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared columns for all tables.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not pick one.
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	b.EnsureID()
	return nil
}

// EnsureID sets a fresh UUID on records that do not have one yet. Stores that
// bypass gorm hooks call it directly.
func (b *BaseModel) EnsureID() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
}
