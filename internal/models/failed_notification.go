package models

import "time"

const (
	NotificationRetrying = "retrying"
	NotificationDead     = "dead"
	NotificationSent     = "sent"
)

// FailedNotification is the retry queue for events a sink could not deliver.
type FailedNotification struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Sink      string `gorm:"size:30;not null" json:"sink"`
	EventType string `gorm:"size:50;not null" json:"event_type"`
	Payload   string `gorm:"type:text;not null" json:"payload"`

	AppointmentID  *uint `gorm:"index" json:"appointment_id"`
	ProfessionalID uint  `json:"professional_id"`

	Status      string    `gorm:"size:20;not null;default:'retrying';index:idx_failed_notification_due,priority:1" json:"status"`
	Attempts    int       `gorm:"not null;default:1" json:"attempts"`
	LastError   string    `gorm:"size:500" json:"last_error"`
	NextRetryAt time.Time `gorm:"index:idx_failed_notification_due,priority:2" json:"next_retry_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
