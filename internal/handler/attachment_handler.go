package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taskapi/internal/apperror"
	"taskapi/internal/model"
	"taskapi/internal/policy"
	"taskapi/internal/service"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const MsgNoFile = "No file uploaded."

// multipartOverhead leaves room for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

// allowedUploadTypes maps each accepted MIME type to the extension shown to clients.
var allowedUploadTypes = []struct {
	mime string
	ext  string
}{
	{"image/jpeg", "jpg"},
	{"image/png", "png"},
	{"application/pdf", "pdf"},
	{"application/msword", "doc"},
	{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx"},
}

type AttachmentService interface {
	Upload(ctx context.Context, taskID, uploaderID uuid.UUID, file service.FileUpload) (*service.UploadResult, error)
	Delete(ctx context.Context, attachmentID uuid.UUID, p policy.Principal) (*model.Attachment, error)
}

var _ AttachmentService = (*service.AttachmentService)(nil)

type AttachmentHandler struct {
	attachments AttachmentService
	maxSize     int64
}

func NewAttachmentHandler(attachments AttachmentService, maxSize int64) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments, maxSize: maxSize}
}

// Upload godoc
// @Summary   Attach a file to a task
// @Description Only the assignee may upload. Each upload moves the task one status forward.
// @Tags      Attachments
// @Security  BearerAuth
// @Accept    multipart/form-data
// @Produce   json
// @Param     id path string true "Task id"
// @Param     file formData file true "jpg, png, pdf, doc or docx, at most 5 MB"
// @Router    /tasks/{id}/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, apperror.BadRequest(h.tooLargeMessage()))
			return
		}
		fail(c, apperror.BadRequest(MsgNoFile))
		return
	}
	if fh.Size > h.maxSize {
		fail(c, apperror.BadRequest(h.tooLargeMessage()))
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		fail(c, err)
		return
	}
	mimeType, ok := allowedMIME(mt)
	if !ok {
		fail(c, apperror.BadRequest(typeNotAllowedMessage()))
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		fail(c, err)
		return
	}

	result, err := h.attachments.Upload(c.Request.Context(), taskID, p.UserID, service.FileUpload{
		Name:     fh.Filename,
		MimeType: mimeType,
		Body:     f,
	})
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusCreated, "Attachment uploaded successfully.", gin.H{
		"attachment": newAttachmentResponse(result.Attachment),
		"new_status": result.NewStatus,
	})
}

func (h *AttachmentHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	attachment, err := h.attachments.Delete(c.Request.Context(), id, p)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, "Attachment deleted successfully.", newAttachmentResponse(attachment))
}

func (h *AttachmentHandler) tooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum size is %d MB.", h.maxSize/(1<<20))
}

// allowedMIME reports the canonical allow-listed type that the sniffed content matches.
func allowedMIME(mt *mimetype.MIME) (string, bool) {
	for _, t := range allowedUploadTypes {
		if mt.Is(t.mime) {
			return t.mime, true
		}
	}
	return "", false
}

func typeNotAllowedMessage() string {
	exts := make([]string, 0, len(allowedUploadTypes))
	for _, t := range allowedUploadTypes {
		exts = append(exts, t.ext)
	}
	return "File type not allowed. Only allowed: " + strings.Join(exts, ", ")
}
