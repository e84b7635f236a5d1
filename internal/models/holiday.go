package models

import "time"

type Holiday struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ProfessionalID uint `gorm:"not null;uniqueIndex:idx_holiday_professional_date" json:"professional_id"`

	// YYYY-MM-DD, naive local date
	Date   string `gorm:"size:10;not null;uniqueIndex:idx_holiday_professional_date" json:"date"`
	Reason string `gorm:"size:255" json:"reason"`

	CreatedAt time.Time `json:"created_at"`
}
