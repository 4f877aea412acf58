package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskapi/internal/model"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// TaskFilter narrows List. Zero values mean "no constraint".
type TaskFilter struct {
	Status       model.TaskStatus
	Priority     model.TaskPriority
	AssignedToID *uuid.UUID
	CreatedByID  *uuid.UUID
	DueBefore    *time.Time
	DueAfter     *time.Time
	Page         int
	Limit        int
}

// Normalize applies paging defaults and bounds.
func (f TaskFilter) Normalize() TaskFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}

// TaskChanges lists the columns an update may touch. Nil fields are left alone.
type TaskChanges struct {
	Title        *string
	Description  *string
	Status       *model.TaskStatus
	Priority     *model.TaskPriority
	DueDate      *time.Time
	AssignedToID *uuid.UUID
}

func (c TaskChanges) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.Title != nil {
		cols["title"] = *c.Title
	}
	if c.Description != nil {
		cols["description"] = *c.Description
	}
	if c.Status != nil {
		cols["status"] = *c.Status
	}
	if c.Priority != nil {
		cols["priority"] = *c.Priority
	}
	if c.DueDate != nil {
		cols["due_date"] = *c.DueDate
	}
	if c.AssignedToID != nil {
		cols["assigned_to_id"] = *c.AssignedToID
	}
	return cols
}

type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, id uuid.UUID, changes TaskChanges) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ TaskRepositoryInterface = (*TaskRepository)(nil)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task with its creator, assignee and attachments
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Preload("AssignedTo").
		Preload("Attachments").
		First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// GetByIDForUpdate locks the task row until the surrounding transaction ends.
// Outside a transaction the lock is released immediately.
func (r *TaskRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("CreatedBy").
		Preload("AssignedTo").
		First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// List returns one page of tasks matching filter, newest first
func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	filter = filter.Normalize()

	query := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.CreatedByID != nil {
		query = query.Where("created_by_id = ?", *filter.CreatedByID)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date <= ?", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		query = query.Where("due_date >= ?", *filter.DueAfter)
	}

	var tasks []model.Task
	result := query.
		Preload("CreatedBy").
		Preload("AssignedTo").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// Update writes only the fields set in changes
func (r *TaskRepository) Update(ctx context.Context, id uuid.UUID, changes TaskChanges) error {
	cols := changes.columns()
	if len(cols) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// UpdateStatus sets the status column only
func (r *TaskRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by its ID; attachments are removed by the FK cascade
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
