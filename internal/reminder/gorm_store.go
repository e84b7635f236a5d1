package reminder

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/models"
)

// remindable excludes terminal and in-service statuses.
var remindable = []string{
	string(domain.StatusPending),
	string(domain.StatusConfirmed),
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ClaimDue locks due rows with FOR UPDATE SKIP LOCKED. The lookup rides
// idx_appointment_reminder (reminder_sent_at, start_time) instead of
// scanning every configuration.
func (s *GormStore) ClaimDue(
	ctx context.Context,
	now time.Time,
	limit int,
	fn func(ap models.Appointment) error,
) (int, error) {
	var claimed int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var due []models.Appointment
		if err := tx.
			Table("appointments").
			Select("appointments.*").
			Joins("JOIN schedule_configs sc ON sc.professional_id = appointments.professional_id").
			Where("appointments.reminder_sent_at IS NULL").
			Where("appointments.status IN ?", remindable).
			Where("sc.reminder_offset > 0").
			Where("appointments.start_time > ?", now).
			Where("appointments.start_time - (sc.reminder_offset * interval '1 minute') <= ?", now).
			Order("appointments.start_time ASC").
			Limit(limit).
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: "appointments"},
				Options:  "SKIP LOCKED",
			}).
			Find(&due).Error; err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(due))
		for _, ap := range due {
			ids = append(ids, ap.ID)
		}
		if err := tx.Model(&models.Appointment{}).
			Where("id IN ?", ids).
			Update("reminder_sent_at", now).Error; err != nil {
			return err
		}

		for _, ap := range due {
			ap.ReminderSentAt = &now
			if err := fn(ap); err != nil {
				return err
			}
		}
		claimed = len(due)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return claimed, nil
}

var _ Store = (*GormStore)(nil)
