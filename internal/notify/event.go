package notify

import (
	"context"
	"time"
)

const (
	EventAppointmentCreated       = "appointment.created"
	EventAppointmentStatusChanged = "appointment.status_changed"
	EventAppointmentReminder      = "appointment.reminder"
)

type Event struct {
	Type           string    `json:"type"`
	AccountID      uint      `json:"account_id"`
	ProfessionalID uint      `json:"professional_id"`
	AppointmentID  uint      `json:"appointment_id"`
	Title          string    `json:"title,omitempty"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	StartTime      time.Time `json:"start_time"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Sink delivers events to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

// FailureStore records events a sink could not deliver.
type FailureStore interface {
	Record(ctx context.Context, sink string, ev Event, cause error) error
}
