package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is a committed sale. Written once by the invoice engine and never updated.
type Invoice struct {
	BaseModel
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Seller       *User           `gorm:"foreignKey:UserID" json:"-"`
	CustomerName string          `gorm:"type:varchar(255);index" json:"customer_name"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null;check:chk_invoices_total,total_price >= 0" json:"total_price"`
	Items        []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
}

func (inv Invoice) OwnerID() uuid.UUID { return inv.UserID }

// InvoiceItem snapshots the unit price at sale time.
type InvoiceItem struct {
	BaseModel
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"not null;check:chk_invoice_items_quantity,quantity > 0" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_invoice_items_unit_price,unit_price >= 0" json:"unit_price"`
}

func (it InvoiceItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// SalesSummary aggregates total_price over a set of invoices.
type SalesSummary struct {
	Count        int64           `json:"count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	AverageValue decimal.Decimal `json:"average_value"`
}
