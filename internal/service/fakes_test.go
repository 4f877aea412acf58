package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"taskapi/internal/model"
	"taskapi/internal/repository"
	"taskapi/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memDB is an in-memory stand-in for the Postgres store. WithinTransaction
// serialises callers the way the row lock does for a single task.
type memDB struct {
	txMu        sync.Mutex
	mu          sync.Mutex
	users       map[uuid.UUID]model.User
	tasks       map[uuid.UUID]model.Task
	attachments map[uuid.UUID]model.Attachment
	tokens      map[string]model.RefreshToken
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[uuid.UUID]model.User{},
		tasks:       map[uuid.UUID]model.Task{},
		attachments: map[uuid.UUID]model.Attachment{},
		tokens:      map[string]model.RefreshToken{},
	}
}

func (db *memDB) repos() repository.Repositories {
	return repository.Repositories{
		Users:         memUsers{db},
		Tasks:         memTasks{db},
		Attachments:   memAttachments{db},
		RefreshTokens: memTokens{db},
	}
}

func (db *memDB) WithinTransaction(ctx context.Context, fn func(repos repository.Repositories) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	return fn(db.repos())
}

func (db *memDB) addUser(name string, role model.Role) model.User {
	u := model.User{ID: uuid.New(), Name: name, Email: name + "@example.com", Role: role}
	db.mu.Lock()
	db.users[u.ID] = u
	db.mu.Unlock()
	return u
}

func (db *memDB) task(id uuid.UUID) model.Task {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.tasks[id]
}

func (db *memDB) attachmentCount(taskID uuid.UUID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, a := range db.attachments {
		if a.TaskID == taskID {
			n++
		}
	}
	return n
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(ctx context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r memUsers) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r memUsers) List(ctx context.Context) ([]model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	users := make([]model.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.db.users, id)
	return nil
}

type memTasks struct{ db *memDB }

func (r memTasks) Create(ctx context.Context, task *model.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.tasks[task.ID] = *task
	return nil
}

func (r memTasks) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	if u, ok := r.db.users[t.CreatedByID]; ok {
		t.CreatedBy = &u
	}
	if t.AssignedToID != nil {
		if u, ok := r.db.users[*t.AssignedToID]; ok {
			t.AssignedTo = &u
		}
	}
	return &t, nil
}

func (r memTasks) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return r.GetByID(ctx, id)
}

func (r memTasks) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Task
	for _, t := range r.db.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r memTasks) Update(ctx context.Context, id uuid.UUID, changes repository.TaskChanges) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tasks[id]
	if !ok {
		return repository.ErrTaskNotFound
	}
	if changes.Title != nil {
		t.Title = *changes.Title
	}
	if changes.Description != nil {
		t.Description = *changes.Description
	}
	if changes.Status != nil {
		t.Status = *changes.Status
	}
	if changes.Priority != nil {
		t.Priority = *changes.Priority
	}
	if changes.DueDate != nil {
		t.DueDate = *changes.DueDate
	}
	if changes.AssignedToID != nil {
		assignee := *changes.AssignedToID
		t.AssignedToID = &assignee
	}
	r.db.tasks[t.ID] = t
	return nil
}

func (r memTasks) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus) error {
	return r.Update(ctx, id, repository.TaskChanges{Status: &status})
}

func (r memTasks) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tasks[id]; !ok {
		return repository.ErrTaskNotFound
	}
	delete(r.db.tasks, id)
	for aid, a := range r.db.attachments {
		if a.TaskID == id {
			delete(r.db.attachments, aid)
		}
	}
	return nil
}

type memAttachments struct{ db *memDB }

func (r memAttachments) Create(ctx context.Context, attachment *model.Attachment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.attachments[attachment.ID] = *attachment
	return nil
}

func (r memAttachments) GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.attachments[id]
	if !ok {
		return nil, repository.ErrAttachmentNotFound
	}
	return &a, nil
}

func (r memAttachments) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.attachments[id]; !ok {
		return repository.ErrAttachmentNotFound
	}
	delete(r.db.attachments, id)
	return nil
}

type memTokens struct{ db *memDB }

func (r memTokens) Create(ctx context.Context, token *model.RefreshToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.tokens[token.Token] = *token
	return nil
}

func (r memTokens) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tokens[token]
	if !ok {
		return nil, nil
	}
	if u, ok := r.db.users[t.UserID]; ok {
		t.User = &u
	}
	return &t, nil
}

func (r memTokens) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.tokens {
		if t.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memTokens) DeleteByToken(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.tokens, token)
	return nil
}

func (r memTokens) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for k, t := range r.db.tokens {
		if t.UserID == userID {
			delete(r.db.tokens, k)
			n++
		}
	}
	return n, nil
}

// memBlobs records stored blobs by URL.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	delErr  error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (b *memBlobs) Put(ctx context.Context, pathname string, body io.Reader, contentType string) (*storage.Object, error) {
	if b.putErr != nil {
		return nil, b.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, err
	}
	url := "http://blobs.test/" + pathname
	b.mu.Lock()
	b.objects[url] = buf.Bytes()
	b.mu.Unlock()
	return &storage.Object{URL: url, Pathname: pathname}, nil
}

func (b *memBlobs) Delete(ctx context.Context, url string) error {
	if b.delErr != nil {
		return b.delErr
	}
	b.mu.Lock()
	delete(b.objects, url)
	b.mu.Unlock()
	return nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

var errDB = errors.New("db down")

// MockRefreshTokenRepository is used where a test needs to force store errors.
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	args := m.Called(ctx, token)
	stored := args.Get(0)
	if stored == nil {
		return nil, args.Error(1)
	}
	return stored.(*model.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockRefreshTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTaskRepository is used where a test needs to force store errors.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, id uuid.UUID, changes repository.TaskChanges) error {
	return m.Called(ctx, id, changes).Error(0)
}

func (m *MockTaskRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
