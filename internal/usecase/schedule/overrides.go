package schedule

import (
	"context"
	"errors"
	"strings"

	"github.com/agendahq/backoffice/internal/audit"
	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	sched "github.com/agendahq/backoffice/internal/domain/schedule"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/models"
)

type SaveOverrideInput struct {
	ProfessionalID uint
	Date           string

	// Nil fields keep the configured value for that date.
	StartTime    *string
	EndTime      *string
	SlotDuration *int

	Blocked bool
	Note    string
}

func (in SaveOverrideInput) validate() error {
	if !validDateKey(in.Date) {
		return httperr.ErrBusinessf(domain.ErrInvalidDate, "date must be YYYY-MM-DD")
	}

	var start, end *sched.Clock
	if in.StartTime != nil {
		c, err := sched.ParseClock(*in.StartTime)
		if err != nil {
			return httperr.ErrBusinessf(domain.ErrInvalidRequest, "start_time must be HH:MM")
		}
		start = &c
	}
	if in.EndTime != nil {
		c, err := sched.ParseClock(*in.EndTime)
		if err != nil {
			return httperr.ErrBusinessf(domain.ErrInvalidRequest, "end_time must be HH:MM")
		}
		end = &c
	}
	if start != nil && end != nil && *start >= *end {
		return httperr.ErrBusinessf(domain.ErrInvalidRequest, "start_time must be before end_time")
	}
	if d := in.SlotDuration; d != nil && (*d < MinSlotDuration || *d > MaxSlotDuration) {
		return httperr.ErrBusinessf(domain.ErrInvalidRequest,
			"slot_duration must be between %d and %d minutes", MinSlotDuration, MaxSlotDuration)
	}
	return nil
}

// ======================================================
// UPSERT BY DATE
// ======================================================

type SaveOverride struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewSaveOverride(repo domain.Repository, audit *audit.Dispatcher) *SaveOverride {
	return &SaveOverride{repo: repo, audit: audit}
}

func (uc *SaveOverride) Execute(
	ctx context.Context,
	p identity.Principal,
	in SaveOverrideInput,
) (*models.DayOverride, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	prof, err := domain.Professional(ctx, uc.repo, p, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	o := &models.DayOverride{
		ProfessionalID: prof.ID,
		Date:           in.Date,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		SlotDuration:   in.SlotDuration,
		Blocked:        in.Blocked,
		Note:           strings.TrimSpace(in.Note),
	}
	if err := uc.repo.SaveDayOverride(ctx, o); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		AccountID: p.AccountID,
		UserID:    &p.UserID,
		Action:    "day_override_saved",
		Entity:    "day_override",
		EntityID:  &o.ID,
		Metadata:  map[string]any{"date": o.Date, "blocked": o.Blocked},
	})

	return o, nil
}

// ======================================================
// LIST / DELETE
// ======================================================

type ListOverrides struct {
	repo domain.Repository
}

func NewListOverrides(repo domain.Repository) *ListOverrides {
	return &ListOverrides{repo: repo}
}

func (uc *ListOverrides) Execute(
	ctx context.Context,
	p identity.Principal,
	professionalID uint,
	r DateRange,
) ([]models.DayOverride, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	prof, err := domain.Professional(ctx, uc.repo, p, professionalID)
	if err != nil {
		return nil, err
	}
	return uc.repo.ListDayOverrides(ctx, prof.ID, r.From, r.To)
}

type DeleteOverride struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewDeleteOverride(repo domain.Repository, audit *audit.Dispatcher) *DeleteOverride {
	return &DeleteOverride{repo: repo, audit: audit}
}

func (uc *DeleteOverride) Execute(
	ctx context.Context,
	p identity.Principal,
	professionalID uint,
	overrideID uint,
) error {
	prof, err := domain.Professional(ctx, uc.repo, p, professionalID)
	if err != nil {
		return err
	}

	err = uc.repo.DeleteDayOverride(ctx, prof.ID, overrideID)
	if errors.Is(err, domain.ErrNotFound) {
		return httperr.ErrBusiness(domain.ErrNotAuthorized)
	}
	if err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		AccountID: p.AccountID,
		UserID:    &p.UserID,
		Action:    "day_override_deleted",
		Entity:    "day_override",
		EntityID:  &overrideID,
	})
	return nil
}
