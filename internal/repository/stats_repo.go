package repository

import (
	"context"
	"time"

	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatsRepository interface {
	GetDashboardStats(ctx context.Context, ownerID *uuid.UUID, since time.Time) (*DashboardStats, error)
	GetSalesMovement(ctx context.Context, ownerID *uuid.UUID, startDate, endDate time.Time) ([]SalesMovementData, error)
}

// SalesMovementData is one day of sales for charts
type SalesMovementData struct {
	Date     string          `json:"date"`
	Invoices int64           `json:"invoices"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// DashboardStats is the overview card data
type DashboardStats struct {
	TotalProducts      int64           `json:"total_products"`
	LowStockCount      int64           `json:"low_stock_count"`
	InventoryValuation decimal.Decimal `json:"inventory_valuation"`
	InvoicesToday      int64           `json:"invoices_today"`
	RevenueToday       decimal.Decimal `json:"revenue_today"`
}

type statsRepo struct {
	db *gorm.DB
}

func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db}
}

func scopeOwner(q *gorm.DB, ownerID *uuid.UUID) *gorm.DB {
	if ownerID != nil {
		return q.Where("user_id = ?", *ownerID)
	}
	return q
}

func (r *statsRepo) GetDashboardStats(ctx context.Context, ownerID *uuid.UUID, since time.Time) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := scopeOwner(db.Model(&model.Product{}), ownerID).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := scopeOwner(db.Model(&model.Product{}), ownerID).
		Where("quantity <= threshold").
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	var valuation decimal.NullDecimal
	if err := scopeOwner(db.Model(&model.Product{}), ownerID).
		Select("SUM(quantity * price)").
		Row().Scan(&valuation); err != nil {
		return nil, err
	}
	stats.InventoryValuation = roundMoney(valuation.Decimal)

	var revenue decimal.NullDecimal
	if err := scopeOwner(db.Model(&model.Invoice{}), ownerID).
		Where("created_at >= ?", since.UTC()).
		Select("COUNT(*), SUM(total_price)").
		Row().Scan(&stats.InvoicesToday, &revenue); err != nil {
		return nil, err
	}
	stats.RevenueToday = roundMoney(revenue.Decimal)

	return &stats, nil
}

func (r *statsRepo) GetSalesMovement(ctx context.Context, ownerID *uuid.UUID, startDate, endDate time.Time) ([]SalesMovementData, error) {
	results := []SalesMovementData{}

	// aggregate invoices per day
	rows, err := scopeOwner(r.db.WithContext(ctx).Model(&model.Invoice{}), ownerID).
		Select("DATE(created_at) AS day, COUNT(*) AS invoices, SUM(total_price) AS revenue").
		Where("created_at BETWEEN ? AND ?", startDate.UTC(), endDate.UTC()).
		Group("DATE(created_at)").
		Order("day ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			data    SalesMovementData
			revenue decimal.NullDecimal
		)
		if err := rows.Scan(&data.Date, &data.Invoices, &revenue); err != nil {
			return nil, err
		}
		if len(data.Date) > 10 {
			data.Date = data.Date[:10]
		}
		data.Revenue = roundMoney(revenue.Decimal)
		results = append(results, data)
	}

	return results, rows.Err()
}
