package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/agendahq/backoffice/internal/models"
)

// ErrNotFound is returned by repositories when a scoped lookup matches nothing.
var ErrNotFound = errors.New("record not found")

type ListFilter struct {
	ProfessionalID uint
	From           *time.Time
	To             *time.Time
	Status         *Status
}

type Repository interface {
	// -------- Transaction --------
	// Transaction runs fn with a repository bound to one database transaction.
	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// -------- Account / Professional --------
	GetAccountByID(
		ctx context.Context,
		id uint,
	) (*models.Account, error)

	GetProfessional(
		ctx context.Context,
		accountID uint,
		userID uint,
	) (*models.User, error)

	// -------- Client --------
	FindClient(
		ctx context.Context,
		accountID uint,
		clientID uint,
	) (*models.Client, error)

	// -------- Schedule configuration --------
	GetScheduleConfig(
		ctx context.Context,
		professionalID uint,
	) (*models.ScheduleConfig, error)

	// LockScheduleConfig reads the config row FOR UPDATE. Must run inside Transaction.
	LockScheduleConfig(
		ctx context.Context,
		professionalID uint,
	) (*models.ScheduleConfig, error)

	SaveScheduleConfig(
		ctx context.Context,
		cfg *models.ScheduleConfig,
	) error

	// -------- Holidays --------
	HolidayExists(
		ctx context.Context,
		professionalID uint,
		date string,
	) (bool, error)

	CreateHoliday(
		ctx context.Context,
		h *models.Holiday,
	) error

	ListHolidays(
		ctx context.Context,
		professionalID uint,
		from string,
		to string,
	) ([]models.Holiday, error)

	DeleteHoliday(
		ctx context.Context,
		professionalID uint,
		id uint,
	) error

	// -------- Day overrides --------
	FindDayOverride(
		ctx context.Context,
		professionalID uint,
		date string,
	) (*models.DayOverride, error)

	SaveDayOverride(
		ctx context.Context,
		o *models.DayOverride,
	) error

	ListDayOverrides(
		ctx context.Context,
		professionalID uint,
		from string,
		to string,
	) ([]models.DayOverride, error)

	DeleteDayOverride(
		ctx context.Context,
		professionalID uint,
		id uint,
	) error

	// -------- Appointment (create / conflict) --------
	HasConflict(
		ctx context.Context,
		professionalID uint,
		start time.Time,
		end time.Time,
	) (bool, error)

	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// -------- Appointment (state change) --------
	GetAppointmentForProfessional(
		ctx context.Context,
		appointmentID uint,
		professionalID uint,
	) (*models.Appointment, error)

	UpdateAppointmentStatus(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// -------- Listing / availability --------
	ListAppointments(
		ctx context.Context,
		filter ListFilter,
	) ([]models.Appointment, error)

	ListBlockingAppointments(
		ctx context.Context,
		professionalID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	// -------- Products consumed --------
	GetProduct(
		ctx context.Context,
		accountID uint,
		productID uint,
	) (*models.Product, error)

	// DecrementStock subtracts qty only if enough stock remains; false otherwise.
	DecrementStock(
		ctx context.Context,
		productID uint,
		qty int,
	) (bool, error)

	CreateProductLog(
		ctx context.Context,
		l *models.AppointmentProductLog,
	) error

	ListProductLogs(
		ctx context.Context,
		appointmentID uint,
	) ([]models.AppointmentProductLog, error)
}
