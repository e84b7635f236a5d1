package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agendahq/backoffice/internal/audit"
	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	sched "github.com/agendahq/backoffice/internal/domain/schedule"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/infra/lock"
	"github.com/agendahq/backoffice/internal/metrics"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/notify"
	"github.com/agendahq/backoffice/internal/timezone"
	schedule "github.com/agendahq/backoffice/internal/usecase/schedule"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	// Zero means the caller.
	ProfessionalID uint
	ClientID       *uint

	Title       string
	Description string

	// ISO date-time; naive values are read in the account timezone.
	Date   string
	Status string
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo    domain.Repository
	locker  lock.Locker
	notify  Notifier
	audit   *audit.Dispatcher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewCreateAppointment(
	repo domain.Repository,
	locker lock.Locker,
	notifier Notifier,
	audit *audit.Dispatcher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CreateAppointment {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateAppointment{
		repo:    repo,
		locker:  locker,
		notify:  notifierOrNoop(notifier),
		audit:   audit,
		metrics: m,
		logger:  logger,
	}
}

func bookingLockKey(professionalID uint) string {
	return fmt.Sprintf("agenda:booking:%d", professionalID)
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	p identity.Principal,
	in CreateAppointmentInput,
) (*models.Appointment, error) {
	ap, err := uc.execute(ctx, p, in)
	if err != nil {
		uc.rejected(p, in, err)
		return nil, err
	}

	uc.metrics.BookingOutcome("created")
	uc.audit.Dispatch(audit.Event{
		AccountID: p.AccountID,
		UserID:    &p.UserID,
		Action:    "appointment_created",
		Entity:    "appointment",
		EntityID:  &ap.ID,
		Metadata: map[string]any{
			"professional_id": ap.ProfessionalID,
			"start_time":      ap.StartTime,
			"status":          ap.Status,
		},
	})
	uc.notify.Dispatch(eventFor(notify.EventAppointmentCreated, p.AccountID, ap))

	return ap, nil
}

func (uc *CreateAppointment) execute(
	ctx context.Context,
	p identity.Principal,
	in CreateAppointmentInput,
) (*models.Appointment, error) {

	// --------------------------------------------------
	// Request shape
	// --------------------------------------------------
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, httperr.ErrBusinessf(domain.ErrInvalidRequest, "title is required")
	}

	prof, err := domain.Professional(ctx, uc.repo, p, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	status, err := initialStatus(prof.ID != p.UserID, in.Status)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Start instant in the account timezone
	// --------------------------------------------------
	account, err := uc.repo.GetAccountByID(ctx, p.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	start, err := timezone.ParseDateTime(account.Timezone, in.Date)
	if err != nil {
		return nil, httperr.ErrBusinessf(domain.ErrInvalidDate, "date must be an ISO date-time")
	}

	// --------------------------------------------------
	// Check-then-write, serialised per professional
	// --------------------------------------------------
	var ap *models.Appointment

	err = uc.locker.WithLock(ctx, bookingLockKey(prof.ID), func(ctx context.Context) error {
		return uc.repo.Transaction(ctx, func(tx domain.Repository) error {
			var err error
			ap, err = book(ctx, tx, p.AccountID, prof.ID, start, in.ClientID)
			if err != nil {
				return err
			}

			ap.Title = title
			ap.Description = strings.TrimSpace(in.Description)
			ap.Status = string(status)
			return tx.CreateAppointment(ctx, ap)
		})
	})
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, httperr.ErrBusiness(domain.ErrBookingBusy)
	}
	if err != nil {
		return nil, err
	}

	return ap, nil
}

// book runs the booking checks in order and returns the appointment to insert.
// It must run inside the transaction that inserts it.
func book(
	ctx context.Context,
	tx domain.Repository,
	accountID uint,
	professionalID uint,
	start time.Time,
	clientID *uint,
) (*models.Appointment, error) {

	// 1. Configuration, row-locked for the rest of the transaction
	cfg, err := tx.LockScheduleConfig(ctx, professionalID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness(domain.ErrConfigurationMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("lock schedule config: %w", err)
	}

	// 2. Day resolution
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	res, err := schedule.Resolve(ctx, tx, cfg, day)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	// 3. Time window
	at := sched.ClockOf(start)
	if !res.Window.Contains(at) {
		return nil, httperr.ErrBusinessf(
			domain.ErrOutOfWindow,
			"%s is outside %s-%s",
			at, res.Window.Start, res.Window.End,
		)
	}

	// 4. Client scope
	if clientID != nil {
		_, err := tx.FindClient(ctx, accountID, *clientID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(domain.ErrClientNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("find client: %w", err)
		}
	}

	// 5. Slot conflict on [start, start+slot)
	end := start.Add(res.Window.Slot)
	if !cfg.OverbookingAllowed {
		conflict, err := tx.HasConflict(ctx, professionalID, start, end)
		if err != nil {
			return nil, fmt.Errorf("conflict check: %w", err)
		}
		if conflict {
			return nil, httperr.ErrBusinessf(
				domain.ErrSlotConflict,
				"slot %s is already taken",
				start.Format(time.RFC3339),
			)
		}
	}

	return &models.Appointment{
		AccountID:      accountID,
		ProfessionalID: professionalID,
		ClientID:       clientID,
		StartTime:      start,
		EndTime:        end,
	}, nil
}

// initialStatus applies the default unless the caller asked for pending or confirmed.
func initialStatus(onBehalf bool, requested string) (domain.Status, error) {
	if requested == "" {
		return domain.InitialStatus(onBehalf), nil
	}

	s, err := domain.ParseStatus(requested)
	if err != nil || (s != domain.StatusPending && s != domain.StatusConfirmed) {
		return "", httperr.ErrBusinessf(
			domain.ErrInvalidStatus,
			"status %q cannot be set on creation",
			requested,
		)
	}
	return s, nil
}

func (uc *CreateAppointment) rejected(p identity.Principal, in CreateAppointmentInput, err error) {
	code := httperr.CodeOf(err)
	if code == "" {
		uc.metrics.BookingOutcome("error")
		uc.logger.Error("booking failed", "account_id", p.AccountID, "user_id", p.UserID, "err", err)
		return
	}

	uc.metrics.BookingOutcome(code)
	uc.logger.Info("booking rejected",
		"account_id", p.AccountID,
		"user_id", p.UserID,
		"professional_id", p.Target(in.ProfessionalID),
		"date", in.Date,
		"code", code,
	)
	uc.audit.Dispatch(audit.Event{
		AccountID: p.AccountID,
		UserID:    &p.UserID,
		Action:    "appointment_rejected",
		Entity:    "appointment",
		Metadata: map[string]any{
			"professional_id": p.Target(in.ProfessionalID),
			"date":            in.Date,
			"code":            code,
		},
	})
}
