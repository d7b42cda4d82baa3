// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-pos-ws/internal/events"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
)

// NewDB opens a private in-memory database with the schema migrated. It
// keeps a single connection: the database lives only as long as that
// connection, and transactions queue behind each other like row locks.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	return db
}

// CreateUser inserts an active user with password "secret123".
func CreateUser(t testing.TB, db *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()

	u := &model.User{
		Username: username,
		Role:     role,
		Status:   model.StatusActive,
		ShopType: "grocery",
	}
	require.NoError(t, u.SetPassword("secret123"))
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateProduct inserts a product owned by owner.
func CreateProduct(t testing.TB, db *gorm.DB, owner *model.User, name string, quantity int, price string) *model.Product {
	t.Helper()

	p := &model.Product{
		UserID:    owner.ID,
		Name:      name,
		Barcode:   uuid.NewString(),
		Category:  "general",
		Quantity:  quantity,
		Price:     decimal.RequireFromString(price),
		Threshold: 2,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Quantity re-reads a product's stock.
func Quantity(t testing.TB, db *gorm.DB, id uuid.UUID) int {
	t.Helper()

	var q int
	require.NoError(t, db.Model(&model.Product{}).Select("quantity").Where("id = ?", id).Row().Scan(&q))
	return q
}

// Count returns the number of rows in model's table.
func Count(t testing.TB, db *gorm.DB, m interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

// Recorder is a Publisher that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *Recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []events.Type {
	evs := r.Events()
	out := make([]events.Type, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}
