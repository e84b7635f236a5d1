package schedule

import (
	"context"
	"errors"
	"strings"

	"github.com/agendahq/backoffice/internal/audit"
	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/timezone"
)

// validDateKey rejects anything that is not a real YYYY-MM-DD date.
func validDateKey(s string) bool {
	_, err := timezone.ParseDate("UTC", s)
	return err == nil
}

// DateRange is an inclusive YYYY-MM-DD range; empty bounds are open.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) validate() error {
	for _, s := range []string{r.From, r.To} {
		if s != "" && !validDateKey(s) {
			return httperr.ErrBusinessf(domain.ErrInvalidDate, "%q is not YYYY-MM-DD", s)
		}
	}
	return nil
}

// ======================================================
// CREATE
// ======================================================

type CreateHolidayInput struct {
	ProfessionalID uint
	Date           string
	Reason         string
}

type CreateHoliday struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCreateHoliday(repo domain.Repository, audit *audit.Dispatcher) *CreateHoliday {
	return &CreateHoliday{repo: repo, audit: audit}
}

func (uc *CreateHoliday) Execute(
	ctx context.Context,
	p identity.Principal,
	in CreateHolidayInput,
) (*models.Holiday, error) {
	if !validDateKey(in.Date) {
		return nil, httperr.ErrBusinessf(domain.ErrInvalidDate, "date must be YYYY-MM-DD")
	}

	prof, err := domain.Professional(ctx, uc.repo, p, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	h := &models.Holiday{
		ProfessionalID: prof.ID,
		Date:           in.Date,
		Reason:         strings.TrimSpace(in.Reason),
	}
	if err := uc.repo.CreateHoliday(ctx, h); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		AccountID: p.AccountID,
		UserID:    &p.UserID,
		Action:    "holiday_created",
		Entity:    "holiday",
		EntityID:  &h.ID,
		Metadata:  map[string]any{"date": h.Date, "professional_id": prof.ID},
	})

	return h, nil
}

// ======================================================
// LIST
// ======================================================

type ListHolidays struct {
	repo domain.Repository
}

func NewListHolidays(repo domain.Repository) *ListHolidays {
	return &ListHolidays{repo: repo}
}

func (uc *ListHolidays) Execute(
	ctx context.Context,
	p identity.Principal,
	professionalID uint,
	r DateRange,
) ([]models.Holiday, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	prof, err := domain.Professional(ctx, uc.repo, p, professionalID)
	if err != nil {
		return nil, err
	}
	return uc.repo.ListHolidays(ctx, prof.ID, r.From, r.To)
}

// ======================================================
// DELETE
// ======================================================

type DeleteHoliday struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewDeleteHoliday(repo domain.Repository, audit *audit.Dispatcher) *DeleteHoliday {
	return &DeleteHoliday{repo: repo, audit: audit}
}

func (uc *DeleteHoliday) Execute(
	ctx context.Context,
	p identity.Principal,
	professionalID uint,
	holidayID uint,
) error {
	prof, err := domain.Professional(ctx, uc.repo, p, professionalID)
	if err != nil {
		return err
	}

	err = uc.repo.DeleteHoliday(ctx, prof.ID, holidayID)
	if errors.Is(err, domain.ErrNotFound) {
		return httperr.ErrBusiness(domain.ErrNotAuthorized)
	}
	if err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		AccountID: p.AccountID,
		UserID:    &p.UserID,
		Action:    "holiday_deleted",
		Entity:    "holiday",
		EntityID:  &holidayID,
	})
	return nil
}
