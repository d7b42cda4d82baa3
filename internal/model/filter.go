package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-pos-ws/internal/apperr"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Page is skip/limit pagination.
type Page struct {
	Skip  int
	Limit int
}

// Bounds returns a safe offset and limit.
func (p Page) Bounds() (offset, limit int) {
	offset, limit = p.Skip, p.Limit
	if offset < 0 {
		offset = 0
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return offset, limit
}

// ProductFilter lists the predicates accepted by product search.
// Zero values and nil pointers mean "no filter".
type ProductFilter struct {
	Name        string // case-insensitive substring
	Category    string
	Barcode     string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinQuantity *int
	MaxQuantity *int
	UserID      *uuid.UUID
	Page
}

func (f ProductFilter) Validate() error {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return apperr.InvalidRange("min_price %s is greater than max_price %s", f.MinPrice, f.MaxPrice)
	}
	if f.MinQuantity != nil && f.MaxQuantity != nil && *f.MinQuantity > *f.MaxQuantity {
		return apperr.InvalidRange("min_quantity %d is greater than max_quantity %d", *f.MinQuantity, *f.MaxQuantity)
	}
	return nil
}

// InvoiceFilter lists the predicates accepted by invoice search.
type InvoiceFilter struct {
	CustomerName string // case-insensitive substring
	MinTotal     *decimal.Decimal
	MaxTotal     *decimal.Decimal
	DateRange
	UserID *uuid.UUID
	Page
}

func (f InvoiceFilter) Validate() error {
	if f.MinTotal != nil && f.MaxTotal != nil && f.MinTotal.GreaterThan(*f.MaxTotal) {
		return apperr.InvalidRange("min_total %s is greater than max_total %s", f.MinTotal, f.MaxTotal)
	}
	return f.DateRange.Validate()
}

// DateRange bounds created_at, both ends inclusive.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return apperr.InvalidRange("start_date %s is after end_date %s",
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return nil
}

// UserFilter lists the predicates accepted by user search.
type UserFilter struct {
	Username string // case-insensitive substring
	Phone    string
	Location string // case-insensitive substring
	ShopType string
	Status   *Status
	Role     *Role
	Page
}
