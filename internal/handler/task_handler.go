package handler

import (
	"context"
	"net/http"
	"time"

	"taskapi/internal/apperror"
	"taskapi/internal/model"
	"taskapi/internal/policy"
	"taskapi/internal/repository"
	"taskapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskService interface {
	Create(ctx context.Context, creatorID uuid.UUID, in service.CreateTaskInput) (*model.Task, error)
	List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, id uuid.UUID, changes repository.TaskChanges, p policy.Principal) (*model.Task, error)
	Delete(ctx context.Context, id uuid.UUID, p policy.Principal) (*model.Task, error)
}

var _ TaskService = (*service.TaskService)(nil)

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Title        string    `json:"title" binding:"required,min=3,max=255"`
	Description  string    `json:"description" binding:"max=1000"`
	Status       string    `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Priority     string    `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate      time.Time `json:"due_date" binding:"required,future"`
	AssignedToID *string   `json:"assigned_to_id" binding:"omitempty,uuid"`
}

// UpdateTaskRequest is the body of PATCH /tasks/:id. Absent fields are left unchanged.
type UpdateTaskRequest struct {
	Title        *string    `json:"title" binding:"omitempty,min=3,max=255"`
	Description  *string    `json:"description" binding:"omitempty,max=1000"`
	Status       *string    `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Priority     *string    `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate      *time.Time `json:"due_date" binding:"omitempty,future"`
	AssignedToID *string    `json:"assigned_to_id" binding:"omitempty,uuid"`
}

// ListTasksQuery holds the GET /tasks filters.
type ListTasksQuery struct {
	Status        string `form:"status"`
	Priority      string `form:"priority"`
	AssignedToID  string `form:"assigned_to_id" binding:"omitempty,uuid"`
	CreatedByID   string `form:"created_by_id" binding:"omitempty,uuid"`
	DueDateBefore string `form:"due_date_before"`
	DueDateAfter  string `form:"due_date_after"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	Limit         int    `form:"limit" binding:"omitempty,min=1"`
}

// Create godoc
// @Summary   Create a task
// @Tags      Tasks
// @Security  BearerAuth
// @Accept    json
// @Produce   json
// @Param     request body CreateTaskRequest true "Task"
// @Success   201 {object} TaskResponse
// @Router    /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	in := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TaskStatus(req.Status),
		Priority:    model.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
	}
	if req.AssignedToID != nil {
		id := uuid.MustParse(*req.AssignedToID)
		in.AssignedToID = &id
	}

	task, err := h.tasks.Create(c.Request.Context(), p.UserID, in)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusCreated, "Task created successfully", newTaskResponse(task))
}

// GetAll godoc
// @Summary   List tasks
// @Tags      Tasks
// @Security  BearerAuth
// @Produce   json
// @Param     status query string false "TODO, IN_PROGRESS or DONE"
// @Param     priority query string false "LOW, MEDIUM or HIGH"
// @Param     assigned_to_id query string false "Assignee id"
// @Param     created_by_id query string false "Creator id"
// @Param     due_date_before query string false "RFC 3339 or YYYY-MM-DD"
// @Param     due_date_after query string false "RFC 3339 or YYYY-MM-DD"
// @Param     page query int false "Page, from 1"
// @Param     limit query int false "Page size"
// @Router    /tasks [get]
func (h *TaskHandler) GetAll(c *gin.Context) {
	var q ListTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, bindingError(err))
		return
	}

	filter, err := q.toFilter()
	if err != nil {
		fail(c, err)
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, newTaskResponse(&tasks[i]))
	}
	respondList(c, "Tasks retrieved successfully", resp, len(resp))
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, "Task retrieved successfully", newTaskResponse(task))
}

func (h *TaskHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), id, req.toChanges(), p)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, "Task updated successfully", newTaskResponse(task))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Delete(c.Request.Context(), id, p)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, "Task deleted successfully", newTaskResponse(task))
}

func (r UpdateTaskRequest) toChanges() repository.TaskChanges {
	changes := repository.TaskChanges{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
	}
	if r.Status != nil {
		s := model.TaskStatus(*r.Status)
		changes.Status = &s
	}
	if r.Priority != nil {
		pr := model.TaskPriority(*r.Priority)
		changes.Priority = &pr
	}
	if r.AssignedToID != nil {
		id := uuid.MustParse(*r.AssignedToID)
		changes.AssignedToID = &id
	}
	return changes
}

func (q ListTasksQuery) toFilter() (repository.TaskFilter, error) {
	filter := repository.TaskFilter{
		Status:   model.TaskStatus(q.Status),
		Priority: model.TaskPriority(q.Priority),
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if q.AssignedToID != "" {
		id := uuid.MustParse(q.AssignedToID)
		filter.AssignedToID = &id
	}
	if q.CreatedByID != "" {
		id := uuid.MustParse(q.CreatedByID)
		filter.CreatedByID = &id
	}

	var err error
	if filter.DueBefore, err = parseDateParam("due_date_before", q.DueDateBefore); err != nil {
		return filter, err
	}
	if filter.DueAfter, err = parseDateParam("due_date_after", q.DueDateAfter); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseDateParam accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
func parseDateParam(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.Validation(map[string]string{name: name + " must be a valid date"})
}
