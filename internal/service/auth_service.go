package service

import (
	"context"
	"strings"
	"time"

	"taskapi/internal/apperror"
	"taskapi/internal/auth"
	"taskapi/internal/logging"
	"taskapi/internal/model"
	"taskapi/internal/policy"
	"taskapi/internal/repository"

	"github.com/google/uuid"
)

const (
	MsgEmailInUse           = "Email already in use"
	MsgInvalidCredentials   = "Invalid email or password."
	MsgRefreshTokenRequired = "Refresh token is required"
	MsgInvalidRefreshToken  = "Invalid refresh token"
	MsgRefreshTokenExpired  = "Refresh token expired"
	MsgSessionUserMissing   = "User not found"
	MsgInvalidAccessToken   = "Invalid or expired token."
	MsgSessionExpired       = "Session expired or user logged out."
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthService struct {
	users  repository.UserRepositoryInterface
	tokens repository.RefreshTokenRepositoryInterface
	issuer *auth.TokenIssuer
	now    func() time.Time
}

func NewAuthService(
	users repository.UserRepositoryInterface,
	tokens repository.RefreshTokenRepositoryInterface,
	issuer *auth.TokenIssuer,
) *AuthService {
	return &AuthService{users: users, tokens: tokens, issuer: issuer, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict(MsgEmailInUse)
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:       uuid.New(),
		Name:     in.Name,
		Email:    email,
		Password: hash,
		Role:     role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered with role %s", user.ID, user.Role)
	return user, nil
}

// Login opens a new session. Existing sessions of the user stay valid.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.Password, password) {
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	accessToken, err := s.issuer.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, expiresAt, err := s.issuer.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Create(ctx, &model.RefreshToken{
		ID:        uuid.New(),
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: USER_LOGIN, Description: User %s logged in", user.ID)
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh issues a new access token for a stored, unexpired refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperror.BadRequest(MsgRefreshTokenRequired)
	}

	stored, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if stored == nil {
		return "", apperror.Unauthorized(MsgInvalidRefreshToken)
	}
	if stored.Expired(s.now()) {
		return "", apperror.Unauthorized(MsgRefreshTokenExpired)
	}
	if stored.User == nil {
		return "", apperror.NotFound(MsgSessionUserMissing)
	}

	return s.issuer.GenerateAccessToken(stored.User)
}

// Logout deletes every session of the user, which also invalidates all of
// the user's outstanding access tokens on their next use.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	n, err := s.tokens.DeleteByUserID(ctx, userID)
	if err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: USER_LOGOUT, Description: User %s logged out, %d sessions revoked", userID, n)
	return nil
}

// Authenticate verifies an access token and requires the user to still hold at
// least one session row, whichever token it belongs to.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (policy.Principal, error) {
	claims, err := s.issuer.ParseAccessToken(accessToken)
	if err != nil {
		return policy.Principal{}, apperror.Unauthorized(MsgInvalidAccessToken)
	}

	userID := uuid.MustParse(claims.UserID)
	ok, err := s.tokens.ExistsForUser(ctx, userID)
	if err != nil {
		return policy.Principal{}, err
	}
	if !ok {
		return policy.Principal{}, apperror.Unauthorized(MsgSessionExpired)
	}

	return policy.Principal{UserID: userID, Role: claims.Role}, nil
}
