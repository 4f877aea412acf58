package model

import (
	"time"

	"github.com/google/uuid"
)

// Attachment belongs to exactly one task and is removed with it.
type Attachment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	FileName  string    `gorm:"not null"`
	FileURL   string    `gorm:"not null"`
	MimeType  string    `gorm:"not null"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Task *Task `gorm:"foreignKey:TaskID"`
}
