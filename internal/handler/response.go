package handler

import (
	"net/http"
	"time"

	"taskapi/internal/apperror"
	"taskapi/internal/middleware"
	"taskapi/internal/model"
	"taskapi/internal/policy"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserSummary is the public part of a user embedded in other responses.
type UserSummary struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type UserResponse struct {
	UserSummary
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AttachmentResponse struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"file_name"`
	FileURL   string    `json:"file_url"`
	MimeType  string    `json:"mime_type"`
	TaskID    uuid.UUID `json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskResponse struct {
	ID           uuid.UUID            `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Status       model.TaskStatus     `json:"status"`
	Priority     model.TaskPriority   `json:"priority"`
	DueDate      time.Time            `json:"due_date"`
	CreatedByID  uuid.UUID            `json:"created_by_id"`
	AssignedToID *uuid.UUID           `json:"assigned_to_id"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Creator      *UserSummary         `json:"creator,omitempty"`
	Assignee     *UserSummary         `json:"assignee,omitempty"`
	Attachments  []AttachmentResponse `json:"attachments"`
}

func newUserSummary(u *model.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		UserSummary: *newUserSummary(u),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func newAttachmentResponse(a *model.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:        a.ID,
		FileName:  a.FileName,
		FileURL:   a.FileURL,
		MimeType:  a.MimeType,
		TaskID:    a.TaskID,
		CreatedAt: a.CreatedAt,
	}
}

func newTaskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		DueDate:      t.DueDate,
		CreatedByID:  t.CreatedByID,
		AssignedToID: t.AssignedToID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Creator:      newUserSummary(t.CreatedBy),
		Assignee:     newUserSummary(t.AssignedTo),
		Attachments:  make([]AttachmentResponse, 0, len(t.Attachments)),
	}
	for i := range t.Attachments {
		resp.Attachments = append(resp.Attachments, newAttachmentResponse(&t.Attachments[i]))
	}
	return resp
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondList(c *gin.Context, message string, data interface{}, count int) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "count": count, "data": data})
}

// fail hands err to middleware.ErrorHandler.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

func principal(c *gin.Context) (policy.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		fail(c, apperror.Unauthorized(middleware.MsgUnauthorized))
	}
	return p, ok
}

func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		fail(c, apperror.BadRequest("Invalid "+param+" format."))
		return uuid.Nil, false
	}
	return id, true
}
