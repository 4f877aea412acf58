package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskapi/internal/apperror"
	"taskapi/internal/handler"
	"taskapi/internal/model"
	"taskapi/internal/policy"
	"taskapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testMaxUpload = 1 << 20

var pdfContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

func setupAttachmentTest(p policy.Principal) (*gin.Engine, *MockAttachmentService) {
	r := newTestEngine()
	mockSvc := new(MockAttachmentService)
	attachmentHandler := handler.NewAttachmentHandler(mockSvc, testMaxUpload)

	authed := r.Group("", asPrincipal(p))
	authed.POST("/tasks/:id/attachments", attachmentHandler.Upload)
	authed.DELETE("/attachments/:id", attachmentHandler.Delete)
	return r, mockSvc
}

func uploadFile(r *gin.Engine, taskID uuid.UUID, field, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, _ := w.CreateFormFile(field, filename)
		_, _ = part.Write(content)
	} else {
		_ = w.WriteField("note", "no file here")
	}
	_ = w.Close()

	return serve(r, http.MethodPost, "/tasks/"+taskID.String()+"/attachments", &body, w.FormDataContentType())
}

func TestAttachmentHandler_Upload(t *testing.T) {
	// Arrange
	assignee := policy.Principal{UserID: uuid.New(), Role: model.RoleUser}
	router, mockSvc := setupAttachmentTest(assignee)
	taskID := uuid.New()
	attachment := &model.Attachment{
		ID:       uuid.New(),
		FileName: "tasks/budi/ana/1700000000000-report.pdf",
		FileURL:  "http://localhost:8080/files/tasks/budi/ana/1700000000000-report.pdf",
		MimeType: "application/pdf",
		TaskID:   taskID,
	}
	mockSvc.On("Upload", mock.Anything, taskID, assignee.UserID, mock.MatchedBy(func(f service.FileUpload) bool {
		content, err := io.ReadAll(f.Body)
		return err == nil && f.Name == "report.pdf" && f.MimeType == "application/pdf" && bytes.Equal(content, pdfContent)
	})).Return(&service.UploadResult{Attachment: attachment, NewStatus: model.StatusInProgress}, nil)

	// Act
	resp := uploadFile(router, taskID, "file", "report.pdf", pdfContent)

	// Assert
	require.Equal(t, http.StatusCreated, resp.Code)

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			Attachment handler.AttachmentResponse `json:"attachment"`
			NewStatus  string                     `json:"new_status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "Attachment uploaded successfully.", response.Message)
	assert.Equal(t, "IN_PROGRESS", response.Data.NewStatus)
	assert.Equal(t, attachment.FileURL, response.Data.Attachment.FileURL)
	mockSvc.AssertExpectations(t)
}

func TestAttachmentHandler_Upload_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		content  []byte
		message  string
	}{
		{"no file", "", "", nil, handler.MsgNoFile},
		{"wrong field", "document", "report.pdf", pdfContent, handler.MsgNoFile},
		{"plain text", "file", "notes.pdf", []byte("just some text, not a pdf"),
			"File type not allowed. Only allowed: jpg, png, pdf, doc, docx"},
		{"too large", "file", "big.pdf", append(append([]byte{}, pdfContent...), make([]byte, testMaxUpload)...),
			"File too large. Maximum size is 1 MB."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockSvc := setupAttachmentTest(policy.Principal{UserID: uuid.New(), Role: model.RoleUser})

			resp := uploadFile(router, uuid.New(), tt.field, tt.filename, tt.content)

			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.message)
			mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAttachmentHandler_Upload_TaskCompleted(t *testing.T) {
	assignee := policy.Principal{UserID: uuid.New(), Role: model.RoleUser}
	router, mockSvc := setupAttachmentTest(assignee)
	taskID := uuid.New()
	mockSvc.On("Upload", mock.Anything, taskID, assignee.UserID, mock.Anything).
		Return(nil, apperror.Forbidden(policy.MsgTaskCompleted))

	resp := uploadFile(router, taskID, "file", "late.pdf", pdfContent)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.JSONEq(t, `{"success":false,"message":"Cannot upload attachment. Task already completed."}`, resp.Body.String())
}

func TestAttachmentHandler_Delete(t *testing.T) {
	creator := policy.Principal{UserID: uuid.New(), Role: model.RoleManager}
	router, mockSvc := setupAttachmentTest(creator)
	id := uuid.New()
	mockSvc.On("Delete", mock.Anything, id, creator).Return(&model.Attachment{ID: id}, nil)
	other := uuid.New()
	mockSvc.On("Delete", mock.Anything, other, creator).Return(nil, apperror.NotFound(policy.MsgAttachmentNotFound))

	resp := serve(router, http.MethodDelete, "/attachments/"+id.String(), nil, "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Attachment deleted successfully.")

	resp = serve(router, http.MethodDelete, "/attachments/"+other.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
