package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	AccountID uint `gorm:"index" json:"account_id"`

	ProfessionalID uint `gorm:"not null;index:idx_appointment_professional_start,priority:1" json:"professional_id"`
	Professional   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	ClientID *uint   `json:"client_id"`
	Client   *Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"client,omitempty"`

	Title       string `gorm:"size:150;not null" json:"title"`
	Description string `gorm:"size:500" json:"description"`

	StartTime time.Time `gorm:"not null;index:idx_appointment_professional_start,priority:2;index:idx_appointment_reminder,priority:2" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status string `gorm:"size:20;default:'pending'" json:"status"`

	ReminderSentAt *time.Time `gorm:"index:idx_appointment_reminder,priority:1" json:"reminder_sent_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
