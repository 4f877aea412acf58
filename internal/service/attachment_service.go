package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"taskapi/internal/apperror"
	"taskapi/internal/logging"
	"taskapi/internal/model"
	"taskapi/internal/policy"
	"taskapi/internal/repository"
	"taskapi/internal/storage"

	"github.com/google/uuid"
)

// FileUpload is an incoming file already checked for size and type.
type FileUpload struct {
	Name     string
	MimeType string
	Body     io.Reader
}

type UploadResult struct {
	Attachment *model.Attachment
	NewStatus  model.TaskStatus
}

type AttachmentService struct {
	tx          repository.Transactor
	tasks       repository.TaskRepositoryInterface
	attachments repository.AttachmentRepositoryInterface
	blobs       storage.BlobStore
	now         func() time.Time
}

func NewAttachmentService(
	tx repository.Transactor,
	tasks repository.TaskRepositoryInterface,
	attachments repository.AttachmentRepositoryInterface,
	blobs storage.BlobStore,
) *AttachmentService {
	return &AttachmentService{tx: tx, tasks: tasks, attachments: attachments, blobs: blobs, now: time.Now}
}

// Upload stores the file, records the attachment and advances the task one status
// step. The task row stays locked for the whole transaction so concurrent uploads
// to one task advance it one step each.
//
// The blob write is not part of the transaction: if the database work fails after
// the blob was stored, the blob is left behind and only logged.
func (s *AttachmentService) Upload(ctx context.Context, taskID, uploaderID uuid.UUID, file FileUpload) (*UploadResult, error) {
	var result *UploadResult

	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		task, err := repos.Tasks.GetByIDForUpdate(ctx, taskID)
		if errors.Is(err, repository.ErrTaskNotFound) {
			return apperror.NotFound(policy.MsgTaskNotFound)
		}
		if err != nil {
			return err
		}

		if err := policy.AuthorizeAttachmentUpload(task, uploaderID); err != nil {
			return err
		}

		pathname := policy.AttachmentPath(userName(task.CreatedBy), userName(task.AssignedTo), s.now(), file.Name)
		obj, err := s.blobs.Put(ctx, pathname, file.Body, file.MimeType)
		if err != nil {
			return fmt.Errorf("store attachment: %w", err)
		}

		attachment := &model.Attachment{
			ID:       uuid.New(),
			FileName: obj.Pathname,
			FileURL:  obj.URL,
			MimeType: file.MimeType,
			TaskID:   task.ID,
		}
		if err := repos.Attachments.Create(ctx, attachment); err != nil {
			logOrphanedBlob(obj, err)
			return err
		}

		newStatus := policy.NextStatus(task.Status)
		if newStatus != task.Status {
			if err := repos.Tasks.UpdateStatus(ctx, task.ID, newStatus); err != nil {
				logOrphanedBlob(obj, err)
				return err
			}
		}

		result = &UploadResult{Attachment: attachment, NewStatus: newStatus}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: ATTACHMENT_UPLOADED, Description: Attachment %s added to task %s, status %s",
		result.Attachment.ID, taskID, result.NewStatus)
	return result, nil
}

// Delete removes the stored file and then the attachment row. The task status is
// left as it is.
func (s *AttachmentService) Delete(ctx context.Context, attachmentID uuid.UUID, p policy.Principal) (*model.Attachment, error) {
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if errors.Is(err, repository.ErrAttachmentNotFound) {
		return nil, apperror.NotFound(policy.MsgAttachmentNotFound)
	}
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.GetByID(ctx, attachment.TaskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, apperror.NotFound(policy.MsgTaskNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := policy.AuthorizeAttachmentDeletion(task, p); err != nil {
		return nil, err
	}

	if err := s.blobs.Delete(ctx, attachment.FileURL); err != nil {
		return nil, fmt.Errorf("delete attachment file: %w", err)
	}

	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			return nil, apperror.NotFound(policy.MsgAttachmentNotFound)
		}
		return nil, err
	}

	logging.Logger.Infof("Event ID: ATTACHMENT_DELETED, Description: Attachment %s deleted by %s", attachmentID, p.UserID)
	return attachment, nil
}

func userName(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}

func logOrphanedBlob(obj *storage.Object, cause error) {
	logging.Logger.Warnf("Event ID: ATTACHMENT_BLOB_ORPHANED, Description: Stored blob %s has no attachment row: %v", obj.URL, cause)
}
