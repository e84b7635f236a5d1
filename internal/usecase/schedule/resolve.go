package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	sched "github.com/agendahq/backoffice/internal/domain/schedule"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/timezone"
)

// LoadFacts gathers the holiday and override lookups for one date.
func LoadFacts(
	ctx context.Context,
	repo domain.Repository,
	professionalID uint,
	date time.Time,
) (sched.DayFacts, error) {
	key := timezone.DateKey(date)

	holiday, err := repo.HolidayExists(ctx, professionalID, key)
	if err != nil {
		return sched.DayFacts{}, fmt.Errorf("holiday lookup: %w", err)
	}

	facts := sched.DayFacts{Holiday: holiday}

	o, err := repo.FindDayOverride(ctx, professionalID, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return sched.DayFacts{}, fmt.Errorf("override lookup: %w", err)
	default:
		facts.Override, err = o.ToSchedule()
		if err != nil {
			return sched.DayFacts{}, fmt.Errorf("override %d: %w", o.ID, err)
		}
	}

	return facts, nil
}

// Resolve applies cfg and the stored per-date facts to date. Callers inside
// a booking transaction pass the transactional repository.
func Resolve(
	ctx context.Context,
	repo domain.Repository,
	cfg *models.ScheduleConfig,
	date time.Time,
) (sched.Resolution, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return sched.Resolution{}, fmt.Errorf("schedule config %d: %w", cfg.ID, err)
	}

	facts, err := LoadFacts(ctx, repo, cfg.ProfessionalID, date)
	if err != nil {
		return sched.Resolution{}, err
	}

	return sched.Resolve(policy, date, facts), nil
}

// ======================================================
// RESOLVE DAY
// ======================================================

type ResolveDayInput struct {
	ProfessionalID uint
	Date           string
}

type ResolveDay struct {
	repo domain.Repository
}

func NewResolveDay(repo domain.Repository) *ResolveDay {
	return &ResolveDay{repo: repo}
}

func (uc *ResolveDay) Execute(
	ctx context.Context,
	p identity.Principal,
	in ResolveDayInput,
) (sched.Resolution, error) {
	prof, err := domain.Professional(ctx, uc.repo, p, in.ProfessionalID)
	if err != nil {
		return sched.Resolution{}, err
	}

	account, err := uc.repo.GetAccountByID(ctx, p.AccountID)
	if err != nil {
		return sched.Resolution{}, fmt.Errorf("load account: %w", err)
	}

	date, err := timezone.ParseDate(account.Timezone, in.Date)
	if err != nil {
		return sched.Resolution{}, httperr.ErrBusiness(domain.ErrInvalidDate)
	}

	cfg, err := RequireConfig(ctx, uc.repo, prof.ID)
	if err != nil {
		return sched.Resolution{}, err
	}

	return Resolve(ctx, uc.repo, cfg, date)
}

// RequireConfig loads the configuration, mapping absence to configuration_missing.
func RequireConfig(ctx context.Context, repo domain.Repository, professionalID uint) (*models.ScheduleConfig, error) {
	cfg, err := repo.GetScheduleConfig(ctx, professionalID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness(domain.ErrConfigurationMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule config: %w", err)
	}
	return cfg, nil
}
