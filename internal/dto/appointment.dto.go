package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type AppointmentListDTO struct {
	ID             uint       `json:"id"`
	ProfessionalID uint       `json:"professional_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Status         string     `json:"status"`
	ClientID       *uint      `json:"client_id,omitempty"`
	ClientName     string     `json:"client_name,omitempty"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
}

// SlotDTO is one free slot, formatted in the account timezone.
type SlotDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailabilityDTO struct {
	Date     string    `json:"date"`
	Bookable bool      `json:"bookable"`
	Reason   string    `json:"reason,omitempty"`
	Slots    []SlotDTO `json:"slots"`
}

type ProductUsageDTO struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}
