package service

import (
	"context"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/policy"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
)

type UserService interface {
	CreateUser(ctx context.Context, actor *model.User, req *CreateUserRequest) (*model.User, error)
	GetUser(ctx context.Context, actor *model.User, id uuid.UUID) (*model.User, error)
	UpdateUser(ctx context.Context, actor *model.User, id uuid.UUID, req *UpdateUserRequest) (*model.User, error)
	SearchUsers(ctx context.Context, actor *model.User, filter model.UserFilter) ([]model.User, error)

	EnsureAdmin(ctx context.Context, username, password string) (*model.User, bool, error)
	ResetPassword(ctx context.Context, username, password string) error
	SetStatus(ctx context.Context, username string, status model.Status) error
}

type CreateUserRequest struct {
	Username string       `json:"username" validate:"required,min=3,max=50"`
	Password string       `json:"password" validate:"required,min=6"`
	Email    *string      `json:"email" validate:"omitempty,email"`
	Phone    string       `json:"phone" validate:"phone"`
	ShopType string       `json:"shop_type" validate:"required,max=100"`
	Location string       `json:"location" validate:"max=255"`
	Role     model.Role   `json:"role" validate:"omitempty,oneof=user admin"`
	Status   model.Status `json:"status" validate:"omitempty,oneof=active suspended banned"`
}

// UpdateUserRequest is a partial update; nil fields are left alone.
type UpdateUserRequest struct {
	Email    *string       `json:"email" validate:"omitempty,email"`
	Phone    *string       `json:"phone" validate:"omitempty,phone"`
	ShopType *string       `json:"shop_type" validate:"omitempty,min=1,max=100"`
	Location *string       `json:"location" validate:"omitempty,max=255"`
	Password *string       `json:"password" validate:"omitempty,min=6"`
	Role     *model.Role   `json:"role" validate:"omitempty,oneof=user admin"`
	Status   *model.Status `json:"status" validate:"omitempty,oneof=active suspended banned"`
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(ctx context.Context, actor *model.User, req *CreateUserRequest) (*model.User, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	// Friendly message for the common case; the unique index settles races
	existing, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Duplicate("username already exists")
	}
	if req.Email != nil {
		existing, err := s.userRepo.FindByEmail(ctx, *req.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.Duplicate("email already registered")
		}
	}

	user := &model.User{
		Username: req.Username,
		Role:     req.Role,
		Status:   req.Status,
		Email:    req.Email,
		Phone:    req.Phone,
		ShopType: req.ShopType,
		Location: req.Location,
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.Status == "" {
		user.Status = model.StatusActive
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, actor *model.User, id uuid.UUID) (*model.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return policy.RequireOwnershipOrAdmin(actor, user, "user")
}

func (s *userService) UpdateUser(ctx context.Context, actor *model.User, id uuid.UUID, req *UpdateUserRequest) (*model.User, error) {
	user, err := s.GetUser(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if (req.Role != nil || req.Status != nil) && !actor.IsAdmin() {
		return nil, apperr.Forbidden("only admins can change role or status")
	}

	fields := map[string]interface{}{}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.ShopType != nil {
		fields["shop_type"] = *req.ShopType
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if req.Role != nil {
		fields["role"] = *req.Role
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
		fields["password"] = user.Password
	}

	if err := s.userRepo.Update(ctx, user.ID, fields); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, user.ID)
}

func (s *userService) SearchUsers(ctx context.Context, actor *model.User, filter model.UserFilter) ([]model.User, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.userRepo.Search(ctx, filter)
}

// EnsureAdmin creates the bootstrap admin when the username is free. The
// bool reports whether a new account was created.
func (s *userService) EnsureAdmin(ctx context.Context, username, password string) (*model.User, bool, error) {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	admin := &model.User{
		Username: username,
		Role:     model.RoleAdmin,
		Status:   model.StatusActive,
		ShopType: "general",
	}
	if err := admin.SetPassword(password); err != nil {
		return nil, false, err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

func (s *userService) ResetPassword(ctx context.Context, username, password string) error {
	if len(password) < 6 {
		return apperr.Validation("password must be at least 6 characters")
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("user %s not found", username)
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, user.Password)
}

func (s *userService) SetStatus(ctx context.Context, username string, status model.Status) error {
	if _, err := model.ParseStatus(string(status)); err != nil {
		return err
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("user %s not found", username)
	}
	return s.userRepo.Update(ctx, user.ID, map[string]interface{}{"status": status})
}
