package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is one line of a user's inventory. Quantity never drops below zero.
type Product struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Owner       *User           `gorm:"foreignKey:UserID" json:"-"`
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Barcode     string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_live_barcode,where:deleted_at IS NULL" json:"barcode"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	Quantity    int             `gorm:"not null;check:chk_products_quantity,quantity >= 0" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_products_price,price >= 0" json:"price"`
	Threshold   int             `gorm:"not null;check:chk_products_threshold,threshold >= 0" json:"threshold"`
	Description string          `gorm:"type:text" json:"description"`
	UpdatedBy   string          `gorm:"type:varchar(255)" json:"-"`

	// Deleted products stay in place so invoice items keep their reference.
	// Their barcode is released for reuse.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p Product) OwnerID() uuid.UUID { return p.UserID }

// IsLowStock reports quantity at or below the alert threshold.
func (p Product) IsLowStock() bool { return p.Quantity <= p.Threshold }
