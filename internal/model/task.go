package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus only moves forward through attachment uploads: TODO -> IN_PROGRESS -> DONE.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title        string       `gorm:"not null"`
	Description  string
	Status       TaskStatus   `gorm:"type:varchar(16);not null"`
	Priority     TaskPriority `gorm:"type:varchar(16);not null"`
	DueDate      time.Time    `gorm:"not null"`
	CreatedByID  uuid.UUID    `gorm:"type:uuid;not null;index"`
	AssignedToID *uuid.UUID   `gorm:"type:uuid;index"`
	CreatedAt    time.Time    `gorm:"autoCreateTime"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime"`

	CreatedBy   *User        `gorm:"foreignKey:CreatedByID"`
	AssignedTo  *User        `gorm:"foreignKey:AssignedToID"`
	Attachments []Attachment `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}
