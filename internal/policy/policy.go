// Package policy holds the task and attachment authorization rules and the status
// transition applied on upload. Everything here is pure: callers resolve entities
// first and persist the outcome afterwards.
package policy

import (
	"fmt"
	"path"
	"strings"
	"time"

	"taskapi/internal/apperror"
	"taskapi/internal/model"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Principal is the authenticated user a request acts for.
type Principal struct {
	UserID uuid.UUID
	Role   model.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// TaskAction names a mutation guarded by AuthorizeTaskMutation.
type TaskAction string

const (
	ActionUpdate TaskAction = "update"
	ActionDelete TaskAction = "delete"
)

const (
	MsgCreatorNotFound      = "Creator not found."
	MsgAssigneeNotFound     = "Assignee not found."
	MsgSelfAssignment       = "You cannot assign a task to yourself."
	MsgAdminAssignment      = "You cannot assign a task to an Admin."
	MsgTaskNotFound         = "Task not found."
	MsgAttachmentNotFound   = "Attachment not found."
	MsgTaskCompleted        = "Cannot upload attachment. Task already completed."
	MsgUploadNotAssignee    = "You are not allowed to upload a file for this task."
	MsgDeleteAttachmentDeny = "You are not allowed to delete this attachment."
)

// AuthorizeTaskCreation checks the assignment rules for a new task. creator and
// assignee are the resolved users (nil when absent); assigneeID is the requested
// assignee, nil when the task is created unassigned.
func AuthorizeTaskCreation(creator *model.User, assigneeID *uuid.UUID, assignee *model.User) error {
	if creator == nil {
		return apperror.NotFound(MsgCreatorNotFound)
	}
	if assigneeID == nil {
		return nil
	}
	if *assigneeID == creator.ID {
		return apperror.BadRequest(MsgSelfAssignment)
	}
	if assignee == nil {
		return apperror.NotFound(MsgAssigneeNotFound)
	}
	if assignee.Role == model.RoleAdmin {
		return apperror.Forbidden(MsgAdminAssignment)
	}
	// Redundant with the admin check above.
	if creator.Role == model.RoleManager && assignee.Role == model.RoleAdmin {
		return apperror.Forbidden(MsgAdminAssignment)
	}
	return nil
}

// TaskDefaults fills in status and priority when the caller left them empty.
func TaskDefaults(status model.TaskStatus, priority model.TaskPriority) (model.TaskStatus, model.TaskPriority) {
	if status == "" {
		status = model.StatusTodo
	}
	if priority == "" {
		priority = model.PriorityMedium
	}
	return status, priority
}

// AuthorizeTaskMutation allows admins and the task's creator. The assignee gets no
// rights here; its only way to move status is uploading an attachment.
func AuthorizeTaskMutation(task *model.Task, p Principal, action TaskAction) error {
	if task == nil {
		return apperror.NotFound(MsgTaskNotFound)
	}
	if p.IsAdmin() || task.CreatedByID == p.UserID {
		return nil
	}
	return apperror.Forbidden(fmt.Sprintf("Unauthorized to %s this task.", action))
}

// AuthorizeAttachmentUpload allows only the assignee, and only while the task is open.
// Admins are not exempt.
func AuthorizeAttachmentUpload(task *model.Task, uploaderID uuid.UUID) error {
	if task == nil {
		return apperror.NotFound(MsgTaskNotFound)
	}
	if task.Status == model.StatusDone {
		return apperror.Forbidden(MsgTaskCompleted)
	}
	if !task.IsAssignedTo(uploaderID) {
		return apperror.Forbidden(MsgUploadNotAssignee)
	}
	return nil
}

// NextStatus is the status a task moves to after one successful upload. It ignores how
// many attachments the task already has. DONE maps to itself.
func NextStatus(current model.TaskStatus) model.TaskStatus {
	switch current {
	case model.StatusTodo:
		return model.StatusInProgress
	case model.StatusInProgress:
		return model.StatusDone
	default:
		return current
	}
}

// AuthorizeAttachmentDeletion allows the assignee, the creator and any admin.
func AuthorizeAttachmentDeletion(task *model.Task, p Principal) error {
	if task == nil {
		return apperror.NotFound(MsgTaskNotFound)
	}
	if p.IsAdmin() || task.CreatedByID == p.UserID || task.IsAssignedTo(p.UserID) {
		return nil
	}
	return apperror.Forbidden(MsgDeleteAttachmentDeny)
}

// AttachmentPath builds the blob key tasks/<creator>/<assignee>/<unix-ms>-<filename>.
func AttachmentPath(creatorName, assigneeName string, at time.Time, filename string) string {
	return fmt.Sprintf("tasks/%s/%s/%d-%s",
		slugOr(creatorName, "unknown-creator"),
		slugOr(assigneeName, "unknown-user"),
		at.UnixMilli(),
		cleanFilename(filename),
	)
}

func slugOr(name, fallback string) string {
	if s := slug.Make(name); s != "" {
		return s
	}
	return fallback
}

// cleanFilename drops any directory part so the key cannot escape its prefix.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return "file"
	}
	return base
}
