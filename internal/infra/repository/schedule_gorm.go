package repository

import (
	"context"

	"gorm.io/gorm/clause"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/models"
)

// --------------------------------------------------
// Schedule configuration
// --------------------------------------------------

func (r *AppointmentGormRepository) GetScheduleConfig(
	ctx context.Context,
	professionalID uint,
) (*models.ScheduleConfig, error) {

	var cfg models.ScheduleConfig
	if err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		First(&cfg).Error; err != nil {
		return nil, notFound(err)
	}
	return &cfg, nil
}

// LockScheduleConfig holds the row until the surrounding transaction ends,
// serialising bookings of one professional across instances.
func (r *AppointmentGormRepository) LockScheduleConfig(
	ctx context.Context,
	professionalID uint,
) (*models.ScheduleConfig, error) {

	var cfg models.ScheduleConfig
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("professional_id = ?", professionalID).
		First(&cfg).Error; err != nil {
		return nil, notFound(err)
	}
	return &cfg, nil
}

func (r *AppointmentGormRepository) SaveScheduleConfig(
	ctx context.Context,
	cfg *models.ScheduleConfig,
) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}

// --------------------------------------------------
// Holidays
// --------------------------------------------------

func (r *AppointmentGormRepository) HolidayExists(
	ctx context.Context,
	professionalID uint,
	date string,
) (bool, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Holiday{}).
		Where("professional_id = ? AND date = ?", professionalID, date).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AppointmentGormRepository) CreateHoliday(
	ctx context.Context,
	h *models.Holiday,
) error {
	err := r.db.WithContext(ctx).Create(h).Error
	if isUniqueViolation(err) {
		return httperr.ErrBusinessf(domain.ErrHolidayExists, "%s is already a holiday", h.Date)
	}
	return err
}

func (r *AppointmentGormRepository) ListHolidays(
	ctx context.Context,
	professionalID uint,
	from string,
	to string,
) ([]models.Holiday, error) {

	q := r.db.WithContext(ctx).Where("professional_id = ?", professionalID)
	if from != "" {
		q = q.Where("date >= ?", from)
	}
	if to != "" {
		q = q.Where("date <= ?", to)
	}

	var out []models.Holiday
	if err := q.Order("date ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AppointmentGormRepository) DeleteHoliday(
	ctx context.Context,
	professionalID uint,
	id uint,
) error {
	return affectedOne(r.db.WithContext(ctx).
		Where("id = ? AND professional_id = ?", id, professionalID).
		Delete(&models.Holiday{}))
}

// --------------------------------------------------
// Day overrides
// --------------------------------------------------

func (r *AppointmentGormRepository) FindDayOverride(
	ctx context.Context,
	professionalID uint,
	date string,
) (*models.DayOverride, error) {

	var o models.DayOverride
	if err := r.db.WithContext(ctx).
		Where("professional_id = ? AND date = ?", professionalID, date).
		First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// SaveDayOverride upserts on (professional_id, date).
func (r *AppointmentGormRepository) SaveDayOverride(
	ctx context.Context,
	o *models.DayOverride,
) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "professional_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"start_time", "end_time", "slot_duration", "blocked", "note", "updated_at",
			}),
		}).
		Create(o).Error
}

func (r *AppointmentGormRepository) ListDayOverrides(
	ctx context.Context,
	professionalID uint,
	from string,
	to string,
) ([]models.DayOverride, error) {

	q := r.db.WithContext(ctx).Where("professional_id = ?", professionalID)
	if from != "" {
		q = q.Where("date >= ?", from)
	}
	if to != "" {
		q = q.Where("date <= ?", to)
	}

	var out []models.DayOverride
	if err := q.Order("date ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AppointmentGormRepository) DeleteDayOverride(
	ctx context.Context,
	professionalID uint,
	id uint,
) error {
	return affectedOne(r.db.WithContext(ctx).
		Where("id = ? AND professional_id = ?", id, professionalID).
		Delete(&models.DayOverride{}))
}
