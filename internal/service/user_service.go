package service

import (
	"context"
	"errors"

	"taskapi/internal/apperror"
	"taskapi/internal/logging"
	"taskapi/internal/model"
	"taskapi/internal/repository"

	"github.com/google/uuid"
)

const (
	MsgUserNotFound      = "User not found."
	MsgManagerViewsAdmin = "Managers cannot view Admin details."
)

type UserService struct {
	users repository.UserRepositoryInterface
}

func NewUserService(users repository.UserRepositoryInterface) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// Get hides admin accounts from managers.
func (s *UserService) Get(ctx context.Context, id uuid.UUID, requesterRole model.Role) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound(MsgUserNotFound)
	}
	if requesterRole == model.RoleManager && user.Role == model.RoleAdmin {
		return nil, apperror.Forbidden(MsgManagerViewsAdmin)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound(MsgUserNotFound)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, err
	}

	logging.Logger.Infof("Event ID: USER_DELETED, Description: User %s deleted", id)
	return user, nil
}
