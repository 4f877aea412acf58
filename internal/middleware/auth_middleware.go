package middleware

import (
	"context"
	"strings"

	"taskapi/internal/apperror"
	"taskapi/internal/model"
	"taskapi/internal/policy"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

const (
	MsgNoToken       = "Access denied. No token provided."
	MsgUnauthorized  = "Unauthorized."
	MsgRoleForbidden = "Access denied. You do not have the required role."
)

// Authenticator resolves a bearer access token to the principal it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (policy.Principal, error)
}

// JWTAuthMiddleware requires "Authorization: Bearer <token>" and stores the
// principal's id and role in the gin context.
func JWTAuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortWithError(c, apperror.Unauthorized(MsgNoToken))
			return
		}

		p, err := authn.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(UserIDKey, p.UserID)
		c.Set(RoleKey, p.Role)
		c.Next()
	}
}

// RequireRoles lets the request through only when the principal holds one of roles.
// It must run after JWTAuthMiddleware.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abortWithError(c, apperror.Unauthorized(MsgUnauthorized))
			return
		}
		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, apperror.Forbidden(MsgRoleForbidden))
	}
}

// PrincipalFrom returns the principal stored by JWTAuthMiddleware.
func PrincipalFrom(c *gin.Context) (policy.Principal, bool) {
	rawID, exists := c.Get(UserIDKey)
	if !exists {
		return policy.Principal{}, false
	}
	userID, ok := rawID.(uuid.UUID)
	if !ok {
		return policy.Principal{}, false
	}
	role, _ := c.Get(RoleKey)
	r, _ := role.(model.Role)
	return policy.Principal{UserID: userID, Role: r}, true
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
