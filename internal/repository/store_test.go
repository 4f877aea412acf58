package repository_test

import (
	"context"
	"errors"
	"testing"

	"taskapi/internal/model"
	"taskapi/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStore_WithinTransaction_Commits(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	store := repository.NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET "status"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := store.WithinTransaction(context.Background(), func(repos repository.Repositories) error {
		return repos.Tasks.UpdateStatus(context.Background(), uuid.New(), model.StatusInProgress)
	})

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTransaction_RollsBackOnError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	store := repository.NewStore(gormDB)
	failure := errors.New("blob store down")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET "status"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := store.WithinTransaction(context.Background(), func(repos repository.Repositories) error {
		if err := repos.Tasks.UpdateStatus(context.Background(), uuid.New(), model.StatusDone); err != nil {
			return err
		}
		return failure
	})

	assert.ErrorIs(t, err, failure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepository_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	attachmentRepo := repository.NewAttachmentRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "attachments" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "attachments" WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	attachment, err := attachmentRepo.GetByID(context.Background(), uuid.New())
	assert.Nil(t, attachment)
	assert.ErrorIs(t, err, repository.ErrAttachmentNotFound)

	err = attachmentRepo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrAttachmentNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
