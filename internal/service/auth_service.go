package service

import (
	"context"
	"errors"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/pkg/jwt"
)

var (
	ErrInvalidCredentials = apperr.Unauthorized("incorrect username or password")
	ErrInvalidToken       = apperr.Unauthorized("could not validate credentials")
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

type LoginResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	TokenType    string             `json:"token_type"`
	ExpiresIn    int64              `json:"expires_in"`
	User         model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	// 1. Find user by username
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	// 2. Verify password before revealing anything about the account
	if user == nil || !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Only active accounts get tokens
	if err := requireActive(user); err != nil {
		return nil, err
	}

	return s.issuePair(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	claims, err := s.tokens.ValidateTyped(refreshToken, jwt.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.issuePair(user)
}

// Authenticate resolves an access token to an active user
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.tokens.ValidateTyped(accessToken, jwt.AccessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrMissingToken) {
			return nil, apperr.Unauthorized("missing authorization token")
		}
		return nil, ErrInvalidToken
	}
	return s.userFromClaims(ctx, claims)
}

func (s *authService) userFromClaims(ctx context.Context, claims *jwt.Claims) (*model.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if err := requireActive(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) issuePair(user *model.User) (*LoginResponse, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.Role.String())
	if err != nil {
		return nil, apperr.TransactionFailure(err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperr.TransactionFailure(err)
	}
	return &LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         user.ToResponse(),
	}, nil
}

func requireActive(user *model.User) error {
	if !user.Status.CanAuthenticate() {
		return apperr.Forbidden("account is %s", user.Status)
	}
	return nil
}
