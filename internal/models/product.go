package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	AccountID uint `gorm:"index" json:"account_id"`

	Name        string          `gorm:"size:100;not null" json:"name"`
	Description string          `gorm:"size:255" json:"description"`
	SKU         string          `gorm:"size:50" json:"sku"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	Active      bool            `gorm:"default:true" json:"active"`

	Category string `gorm:"size:50" json:"category"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
