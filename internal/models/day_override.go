package models

import (
	"time"

	"github.com/agendahq/backoffice/internal/domain/schedule"
)

type DayOverride struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ProfessionalID uint `gorm:"not null;uniqueIndex:idx_override_professional_date" json:"professional_id"`

	Date         string  `gorm:"size:10;not null;uniqueIndex:idx_override_professional_date" json:"date"`
	StartTime    *string `gorm:"size:5" json:"start_time"`
	EndTime      *string `gorm:"size:5" json:"end_time"`
	SlotDuration *int    `json:"slot_duration"`
	Blocked      bool    `gorm:"default:false" json:"blocked"`
	Note         string  `gorm:"size:255" json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *DayOverride) ToSchedule() (*schedule.Override, error) {
	out := &schedule.Override{Blocked: o.Blocked}

	if o.StartTime != nil {
		c, err := schedule.ParseClock(*o.StartTime)
		if err != nil {
			return nil, err
		}
		out.StartTime = &c
	}
	if o.EndTime != nil {
		c, err := schedule.ParseClock(*o.EndTime)
		if err != nil {
			return nil, err
		}
		out.EndTime = &c
	}
	if o.SlotDuration != nil {
		d := time.Duration(*o.SlotDuration) * time.Minute
		out.SlotDuration = &d
	}
	return out, nil
}
