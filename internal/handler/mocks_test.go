package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"taskapi/internal/handler"
	"taskapi/internal/middleware"
	"taskapi/internal/model"
	"taskapi/internal/policy"
	"taskapi/internal/repository"
	"taskapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Мок сервисов, которыми пользуются обработчики
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	args := m.Called(ctx, in)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.TokenPair, error) {
	args := m.Called(ctx, email, password)
	pair := args.Get(0)
	if pair == nil {
		return nil, args.Error(1)
	}
	return pair.(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, creatorID uuid.UUID, in service.CreateTaskInput) (*model.Task, error) {
	args := m.Called(ctx, creatorID, in)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, id uuid.UUID, changes repository.TaskChanges, p policy.Principal) (*model.Task, error) {
	args := m.Called(ctx, id, changes, p)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, id uuid.UUID, p policy.Principal) (*model.Task, error) {
	args := m.Called(ctx, id, p)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

type MockAttachmentService struct {
	mock.Mock
}

func (m *MockAttachmentService) Upload(ctx context.Context, taskID, uploaderID uuid.UUID, file service.FileUpload) (*service.UploadResult, error) {
	args := m.Called(ctx, taskID, uploaderID, file)
	res := args.Get(0)
	if res == nil {
		return nil, args.Error(1)
	}
	return res.(*service.UploadResult), args.Error(1)
}

func (m *MockAttachmentService) Delete(ctx context.Context, attachmentID uuid.UUID, p policy.Principal) (*model.Attachment, error) {
	args := m.Called(ctx, attachmentID, p)
	a := args.Get(0)
	if a == nil {
		return nil, args.Error(1)
	}
	return a.(*model.Attachment), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, id uuid.UUID, requesterRole model.Role) (*model.User, error) {
	args := m.Called(ctx, id, requesterRole)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler.RegisterValidators()
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}

// asPrincipal stands in for JWTAuthMiddleware.
func asPrincipal(p policy.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, p.UserID)
		c.Set(middleware.RoleKey, p.Role)
		c.Next()
	}
}

func serve(r *gin.Engine, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func serveJSON(r *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	return serve(r, method, target, bytes.NewBuffer(jsonBody), "application/json")
}
