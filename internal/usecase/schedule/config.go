package schedule

import (
	"context"
	"errors"

	"github.com/agendahq/backoffice/internal/audit"
	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	sched "github.com/agendahq/backoffice/internal/domain/schedule"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/models"
)

const (
	MinSlotDuration = 5
	MaxSlotDuration = 480
)

// ======================================================
// GET
// ======================================================

type GetConfig struct {
	repo domain.Repository
}

func NewGetConfig(repo domain.Repository) *GetConfig {
	return &GetConfig{repo: repo}
}

func (uc *GetConfig) Execute(
	ctx context.Context,
	p identity.Principal,
	professionalID uint,
) (*models.ScheduleConfig, error) {
	prof, err := domain.Professional(ctx, uc.repo, p, professionalID)
	if err != nil {
		return nil, err
	}
	return RequireConfig(ctx, uc.repo, prof.ID)
}

// ======================================================
// SAVE (lazy create, update in place)
// ======================================================

type SaveConfigInput struct {
	ProfessionalID uint

	StartTime    string
	EndTime      string
	SlotDuration int
	WorkingDays  sched.WorkingDays

	OverbookingAllowed        bool
	AllowBookingOnBlockedDays bool
	ReminderOffset            int
}

func (in SaveConfigInput) validate() error {
	start, err := sched.ParseClock(in.StartTime)
	if err != nil {
		return httperr.ErrBusinessf(domain.ErrInvalidRequest, "start_time must be HH:MM")
	}
	end, err := sched.ParseClock(in.EndTime)
	if err != nil {
		return httperr.ErrBusinessf(domain.ErrInvalidRequest, "end_time must be HH:MM")
	}
	if start >= end {
		return httperr.ErrBusinessf(domain.ErrInvalidRequest, "start_time must be before end_time")
	}
	if in.SlotDuration < MinSlotDuration || in.SlotDuration > MaxSlotDuration {
		return httperr.ErrBusinessf(domain.ErrInvalidRequest,
			"slot_duration must be between %d and %d minutes", MinSlotDuration, MaxSlotDuration)
	}
	if in.ReminderOffset < 0 {
		return httperr.ErrBusinessf(domain.ErrInvalidRequest, "reminder_offset must not be negative")
	}
	return nil
}

type SaveConfig struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewSaveConfig(repo domain.Repository, audit *audit.Dispatcher) *SaveConfig {
	return &SaveConfig{repo: repo, audit: audit}
}

func (uc *SaveConfig) Execute(
	ctx context.Context,
	p identity.Principal,
	in SaveConfigInput,
) (*models.ScheduleConfig, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	prof, err := domain.Professional(ctx, uc.repo, p, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	var saved *models.ScheduleConfig
	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		cfg, err := tx.LockScheduleConfig(ctx, prof.ID)
		if errors.Is(err, domain.ErrNotFound) {
			cfg = &models.ScheduleConfig{ProfessionalID: prof.ID}
		} else if err != nil {
			return err
		}

		cfg.StartTime = in.StartTime
		cfg.EndTime = in.EndTime
		cfg.SlotDuration = in.SlotDuration
		cfg.WorkingDays = sched.NewWorkingDays(in.WorkingDays...)
		cfg.OverbookingAllowed = in.OverbookingAllowed
		cfg.AllowBookingOnBlockedDays = in.AllowBookingOnBlockedDays
		cfg.ReminderOffset = in.ReminderOffset

		if err := tx.SaveScheduleConfig(ctx, cfg); err != nil {
			return err
		}
		saved = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		AccountID: p.AccountID,
		UserID:    &p.UserID,
		Action:    "schedule_config_saved",
		Entity:    "schedule_config",
		EntityID:  &saved.ID,
		Metadata: map[string]any{
			"professional_id": prof.ID,
			"working_days":    saved.WorkingDays.Names(),
		},
	})

	return saved, nil
}
