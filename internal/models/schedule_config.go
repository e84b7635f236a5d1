package models

import (
	"time"

	"github.com/agendahq/backoffice/internal/domain/schedule"
)

// ScheduleConfig is created lazily on the first configuration write and
// updated in place afterwards. One per professional.
type ScheduleConfig struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ProfessionalID uint `gorm:"uniqueIndex;not null" json:"professional_id"`

	StartTime    string               `gorm:"size:5;not null" json:"start_time"`
	EndTime      string               `gorm:"size:5;not null" json:"end_time"`
	SlotDuration int                  `gorm:"not null;default:30" json:"slot_duration"`
	WorkingDays  schedule.WorkingDays `gorm:"type:text" json:"working_days"`

	OverbookingAllowed        bool `gorm:"default:false" json:"overbooking_allowed"`
	AllowBookingOnBlockedDays bool `gorm:"default:false" json:"allow_booking_on_blocked_days"`
	ReminderOffset            int  `gorm:"default:0" json:"reminder_offset"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Policy converts the stored row into the resolver's value type.
func (c *ScheduleConfig) Policy() (schedule.Policy, error) {
	start, err := schedule.ParseClock(c.StartTime)
	if err != nil {
		return schedule.Policy{}, err
	}
	end, err := schedule.ParseClock(c.EndTime)
	if err != nil {
		return schedule.Policy{}, err
	}

	return schedule.Policy{
		StartTime:                 start,
		EndTime:                   end,
		SlotDuration:              time.Duration(c.SlotDuration) * time.Minute,
		WorkingDays:               c.WorkingDays,
		OverbookingAllowed:        c.OverbookingAllowed,
		AllowBookingOnBlockedDays: c.AllowBookingOnBlockedDays,
	}, nil
}
