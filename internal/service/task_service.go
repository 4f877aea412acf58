package service

import (
	"context"
	"errors"
	"time"

	"taskapi/internal/apperror"
	"taskapi/internal/logging"
	"taskapi/internal/model"
	"taskapi/internal/policy"
	"taskapi/internal/repository"

	"github.com/google/uuid"
)

const (
	MsgInvalidStatusFilter   = "Invalid status filter."
	MsgInvalidPriorityFilter = "Invalid priority filter."
)

type CreateTaskInput struct {
	Title        string
	Description  string
	Status       model.TaskStatus
	Priority     model.TaskPriority
	DueDate      time.Time
	AssignedToID *uuid.UUID
}

type TaskService struct {
	users repository.UserRepositoryInterface
	tasks repository.TaskRepositoryInterface
}

func NewTaskService(users repository.UserRepositoryInterface, tasks repository.TaskRepositoryInterface) *TaskService {
	return &TaskService{users: users, tasks: tasks}
}

func (s *TaskService) Create(ctx context.Context, creatorID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	var assignee *model.User
	if in.AssignedToID != nil && creator != nil && *in.AssignedToID != creator.ID {
		if assignee, err = s.users.GetByID(ctx, *in.AssignedToID); err != nil {
			return nil, err
		}
	}

	if err := policy.AuthorizeTaskCreation(creator, in.AssignedToID, assignee); err != nil {
		return nil, err
	}

	status, priority := policy.TaskDefaults(in.Status, in.Priority)
	task := &model.Task{
		ID:           uuid.New(),
		Title:        in.Title,
		Description:  in.Description,
		Status:       status,
		Priority:     priority,
		DueDate:      in.DueDate,
		CreatedByID:  creator.ID,
		AssignedToID: in.AssignedToID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s", task.ID, creator.ID)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.BadRequest(MsgInvalidStatusFilter)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, apperror.BadRequest(MsgInvalidPriorityFilter)
	}
	return s.tasks.List(ctx, filter)
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, apperror.NotFound(policy.MsgTaskNotFound)
	}
	return task, err
}

// Update applies changes when the principal is an admin or the creator. Assignment
// rules from Create are not re-checked here.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, changes repository.TaskChanges, p policy.Principal) (*model.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeTaskMutation(task, p, policy.ActionUpdate); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, id, changes); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, apperror.NotFound(policy.MsgTaskNotFound)
		}
		return nil, err
	}

	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated by %s", id, p.UserID)
	return s.Get(ctx, id)
}

// Delete removes the task and, through the FK cascade, its attachment rows.
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID, p policy.Principal) (*model.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeTaskMutation(task, p, policy.ActionDelete); err != nil {
		return nil, err
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, apperror.NotFound(policy.MsgTaskNotFound)
		}
		return nil, err
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", id, p.UserID)
	return task, nil
}
