package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"taskapi/internal/model"
	"taskapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

var _ AuthService = (*service.AuthService)(nil)

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=ADMIN MANAGER USER"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register godoc
// @Summary  Register a new user
// @Tags     Auth
// @Accept   json
// @Produce  json
// @Param    request body RegisterRequest true "User data"
// @Success  201
// @Failure  400,409
// @Router   /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Login godoc
// @Summary  Log in and receive an access/refresh token pair
// @Tags     Auth
// @Accept   json
// @Produce  json
// @Param    request body LoginRequest true "Credentials"
// @Success  200
// @Failure  400,401
// @Router   /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindingError(err))
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", pair)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, bindingError(err))
		return
	}

	accessToken, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, "Token refreshed successfully", gin.H{"accessToken": accessToken})
}

// Logout revokes every session of the caller.
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), p.UserID); err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, "Logout successful", nil)
}
