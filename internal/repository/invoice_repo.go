package repository

import (
	"context"
	"errors"

	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceRepository is the append-only invoice ledger.
type InvoiceRepository interface {
	CreateHeader(tx *gorm.DB, invoice *model.Invoice) error
	CreateItem(tx *gorm.DB, item *model.InvoiceItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	Search(ctx context.Context, f model.InvoiceFilter) ([]model.Invoice, error)
	Summary(ctx context.Context, ownerID *uuid.UUID, r model.DateRange) (*model.SalesSummary, error)
}

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db}
}

// CreateHeader inserts the invoice row alone; items are written one by one
func (r *invoiceRepo) CreateHeader(tx *gorm.DB, invoice *model.Invoice) error {
	return tx.Omit(clause.Associations).Create(invoice).Error
}

func (r *invoiceRepo) CreateItem(tx *gorm.DB, item *model.InvoiceItem) error {
	return tx.Omit(clause.Associations).Create(item).Error
}

// FindByID returns nil, nil when the invoice does not exist
func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id") }).
		Where("id = ?", id).
		Take(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepo) Search(ctx context.Context, f model.InvoiceFilter) ([]model.Invoice, error) {
	q := r.db.WithContext(ctx).Model(&model.Invoice{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.CustomerName != "" {
		q = q.Where(ilike("customer_name"), likePattern(f.CustomerName))
	}
	if f.MinTotal != nil {
		q = q.Where("total_price >= ?", *f.MinTotal)
	}
	if f.MaxTotal != nil {
		q = q.Where("total_price <= ?", *f.MaxTotal)
	}
	q = whereCreatedWithin(q, f.DateRange)

	offset, limit := f.Bounds()
	var invoices []model.Invoice
	err := q.Preload("Items").
		Order("created_at DESC").Order("id").
		Offset(offset).Limit(limit).
		Find(&invoices).Error
	return invoices, err
}

// Summary aggregates count, sum and average of total_price.
func (r *invoiceRepo) Summary(ctx context.Context, ownerID *uuid.UUID, dates model.DateRange) (*model.SalesSummary, error) {
	q := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("COUNT(*), SUM(total_price), AVG(total_price)")
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}
	q = whereCreatedWithin(q, dates)

	var (
		summary    model.SalesSummary
		total, avg decimal.NullDecimal
	)
	if err := q.Row().Scan(&summary.Count, &total, &avg); err != nil {
		return nil, err
	}
	summary.TotalRevenue = roundMoney(total.Decimal)
	summary.AverageValue = roundMoney(avg.Decimal)
	return &summary, nil
}

// whereCreatedWithin applies an inclusive created_at range. Times are stored
// in UTC.
func whereCreatedWithin(q *gorm.DB, dates model.DateRange) *gorm.DB {
	if dates.Start != nil {
		q = q.Where("created_at >= ?", dates.Start.UTC())
	}
	if dates.End != nil {
		q = q.Where("created_at <= ?", dates.End.UTC())
	}
	return q
}
