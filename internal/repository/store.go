package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the repositories that share one connection or transaction.
type Repositories struct {
	Users         UserRepositoryInterface
	Tasks         TaskRepositoryInterface
	Attachments   AttachmentRepositoryInterface
	RefreshTokens RefreshTokenRepositoryInterface
}

// Transactor runs fn against repositories bound to a single database transaction.
// fn's error rolls the transaction back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

type Store struct {
	Repositories
	db *gorm.DB
}

var _ Transactor = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{Repositories: newRepositories(db), db: db}
}

func newRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         NewUserRepository(db),
		Tasks:         NewTaskRepository(db),
		Attachments:   NewAttachmentRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
	}
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}
