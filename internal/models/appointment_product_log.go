package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppointmentProductLog is append-only: a product consumed during an
// appointment, with the price at the time of use.
type AppointmentProductLog struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	AppointmentID uint    `gorm:"not null;index" json:"appointment_id"`
	ProductID     uint    `gorm:"not null" json:"product_id"`
	Product       Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"product"`

	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *AppointmentProductLog) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
