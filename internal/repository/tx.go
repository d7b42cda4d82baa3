package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/model"
)

// WithTransaction commits when fn returns nil and rolls back on any error or
// panic. Business errors come back unchanged; anything else from storage is
// wrapped as a TransactionFailure.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if err == nil || apperr.Expected(err) {
		return err
	}
	return apperr.TransactionFailure(err)
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.Product{}, &model.Invoice{}, &model.InvoiceItem{})
}

// forUpdate adds a row lock where the dialect has one. SQLite has a single
// writer, so the surrounding transaction already serializes.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// roundMoney trims aggregate noise. SQLite sums decimal columns as REAL.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ilike builds a portable case-insensitive substring predicate for column.
func ilike(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '\\'"
}

func likePattern(s string) string {
	return "%" + strings.ToLower(likeEscaper.Replace(s)) + "%"
}
