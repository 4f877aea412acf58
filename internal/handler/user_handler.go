package handler

import (
	"context"
	"net/http"

	"taskapi/internal/model"
	"taskapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id uuid.UUID, requesterRole model.Role) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) (*model.User, error)
}

var _ UserService = (*service.UserService)(nil)

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GetAll(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, newUserResponse(&users[i]))
	}
	respondList(c, "Users retrieved successfully", resp, len(resp))
}

// GetByID hides admin accounts from managers.
func (h *UserHandler) GetByID(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id, p.Role)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, "User retrieved successfully", newUserResponse(user))
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Delete(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, "User deleted successfully", newUserResponse(user))
}
