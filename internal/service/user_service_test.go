package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/service"
	"go-pos-ws/internal/testutil"
)

func newUserService(t *testing.T) (service.UserService, *invoiceFixture) {
	t.Helper()

	f := newInvoiceFixture(t)
	return service.NewUserService(repository.NewUserRepo(f.db)), f
}

func TestCreateUser(t *testing.T) {
	svc, f := newUserService(t)
	ctx := context.Background()

	req := &service.CreateUserRequest{
		Username: "corner_shop",
		Password: "s3cret!",
		Email:    ptr("shop@example.com"),
		Phone:    "0551234567",
		ShopType: "grocery",
	}
	_, err := svc.CreateUser(ctx, f.seller, req)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	u, err := svc.CreateUser(ctx, f.admin, req)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, model.StatusActive, u.Status)
	assert.NotEqual(t, req.Password, u.Password)
	assert.True(t, u.CheckPassword("s3cret!"))

	_, err = svc.CreateUser(ctx, f.admin, req)
	assert.ErrorIs(t, err, apperr.ErrDuplicateValue)
	assert.EqualError(t, err, "username already exists")

	dup := *req
	dup.Username = "another_shop"
	_, err = svc.CreateUser(ctx, f.admin, &dup)
	assert.EqualError(t, err, "email already registered")

	bad := *req
	bad.Username = "third_shop"
	bad.Email = nil
	bad.Phone = "12345"
	_, err = svc.CreateUser(ctx, f.admin, &bad)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	bad.Phone = ""
	bad.Role = "superuser"
	_, err = svc.CreateUser(ctx, f.admin, &bad)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetAndUpdateUser(t *testing.T) {
	svc, f := newUserService(t)
	ctx := context.Background()

	got, err := svc.GetUser(ctx, f.seller, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "seller", got.Username)

	_, err = svc.GetUser(ctx, f.seller, f.other.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.GetUser(ctx, f.admin, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	updated, err := svc.UpdateUser(ctx, f.seller, f.seller.ID, &service.UpdateUserRequest{
		Location: ptr("Riyadh"),
		Password: ptr("newpass1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Riyadh", updated.Location)
	assert.True(t, updated.CheckPassword("newpass1"))

	_, err = svc.UpdateUser(ctx, f.seller, f.seller.ID, &service.UpdateUserRequest{Role: ptr(model.RoleAdmin)})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	suspended, err := svc.UpdateUser(ctx, f.admin, f.other.ID, &service.UpdateUserRequest{Status: ptr(model.StatusSuspended)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuspended, suspended.Status)
}

func TestSearchUsers(t *testing.T) {
	svc, f := newUserService(t)
	ctx := context.Background()

	_, err := svc.SearchUsers(ctx, f.seller, model.UserFilter{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	all, err := svc.SearchUsers(ctx, f.admin, model.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	admins, err := svc.SearchUsers(ctx, f.admin, model.UserFilter{Role: ptr(model.RoleAdmin)})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "root", admins[0].Username)

	byName, err := svc.SearchUsers(ctx, f.admin, model.UserFilter{Username: "SELL"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, f.seller.ID, byName[0].ID)
}

func TestEnsureAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewUserService(repository.NewUserRepo(db))
	ctx := context.Background()

	admin, created, err := svc.EnsureAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, admin.IsAdmin())

	again, created, err := svc.EnsureAdmin(ctx, "admin", "different")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)
	assert.True(t, again.CheckPassword("admin123"))
}

func TestResetPasswordAndSetStatus(t *testing.T) {
	svc, f := newUserService(t)
	ctx := context.Background()

	require.NoError(t, svc.ResetPassword(ctx, "seller", "fresh-pass"))
	got, err := svc.GetUser(ctx, f.admin, f.seller.ID)
	require.NoError(t, err)
	assert.True(t, got.CheckPassword("fresh-pass"))

	assert.ErrorIs(t, svc.ResetPassword(ctx, "seller", "123"), apperr.ErrValidation)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "nobody", "fresh-pass"), apperr.ErrNotFound)

	require.NoError(t, svc.SetStatus(ctx, "other", model.StatusBanned))
	got, err = svc.GetUser(ctx, f.admin, f.other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBanned, got.Status)

	assert.ErrorIs(t, svc.SetStatus(ctx, "other", "frozen"), apperr.ErrValidation)
}
