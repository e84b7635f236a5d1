package notify

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/agendahq/backoffice/internal/models"
)

// GormStore persists the failed-notification retry queue.
type GormStore struct {
	db         *gorm.DB
	firstRetry time.Duration
}

func NewGormStore(db *gorm.DB, firstRetry time.Duration) *GormStore {
	return &GormStore{db: db, firstRetry: firstRetry}
}

func (s *GormStore) Record(ctx context.Context, sink string, ev Event, cause error) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	var appointmentID *uint
	if ev.AppointmentID != 0 {
		id := ev.AppointmentID
		appointmentID = &id
	}

	row := models.FailedNotification{
		Sink:           sink,
		EventType:      ev.Type,
		Payload:        string(payload),
		AppointmentID:  appointmentID,
		ProfessionalID: ev.ProfessionalID,
		Status:         models.NotificationRetrying,
		Attempts:       1,
		LastError:      truncate(cause.Error(), 500),
		NextRetryAt:    time.Now().UTC().Add(s.firstRetry),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) Due(ctx context.Context, now time.Time, limit int) ([]models.FailedNotification, error) {
	var rows []models.FailedNotification
	err := s.db.WithContext(ctx).
		Where("status = ? AND next_retry_at <= ?", models.NotificationRetrying, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (s *GormStore) MarkSent(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&models.FailedNotification{}).
		Where("id = ?", id).
		Update("status", models.NotificationSent).Error
}

func (s *GormStore) MarkFailed(ctx context.Context, id uint, attempts int, next time.Time, lastErr string, dead bool) error {
	status := models.NotificationRetrying
	if dead {
		status = models.NotificationDead
	}
	return s.db.WithContext(ctx).
		Model(&models.FailedNotification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        status,
			"attempts":      attempts,
			"next_retry_at": next,
			"last_error":    truncate(lastErr, 500),
		}).Error
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ FailureStore = (*GormStore)(nil)
