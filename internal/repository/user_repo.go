package repository

import (
	"context"
	"errors"
	"strings"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/model"
	"go-pos-ws/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error
	Search(ctx context.Context, f model.UserFilter) ([]model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return translateUserConflict(r.db.WithContext(ctx).Create(user).Error)
}

// FindByID returns nil, nil when no user has the id
func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepo) first(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where(query, args...).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
	return translateUserConflict(err)
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", hashedPassword).Error
}

func (r *userRepo) Search(ctx context.Context, f model.UserFilter) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if f.Username != "" {
		q = q.Where(ilike("username"), likePattern(f.Username))
	}
	if f.Phone != "" {
		q = q.Where("phone = ?", f.Phone)
	}
	if f.Location != "" {
		q = q.Where(ilike("location"), likePattern(f.Location))
	}
	if f.ShopType != "" {
		q = q.Where("shop_type = ?", f.ShopType)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}

	offset, limit := f.Bounds()
	var users []model.User
	err := q.Order("created_at ASC").Order("id").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

func translateUserConflict(err error) error {
	if !database.IsUniqueViolation(err) {
		return err
	}
	if strings.Contains(database.ViolatedConstraint(err), "email") {
		return apperr.Duplicate("email already registered")
	}
	return apperr.Duplicate("username already exists")
}
