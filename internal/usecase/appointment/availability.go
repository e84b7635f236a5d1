package appointment

import (
	"context"
	"fmt"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/dto"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/timezone"
	schedule "github.com/agendahq/backoffice/internal/usecase/schedule"
)

type GetAvailabilityInput struct {
	ProfessionalID uint
	Date           string
}

type GetAvailability struct {
	repo domain.Repository
}

func NewGetAvailability(repo domain.Repository) *GetAvailability {
	return &GetAvailability{repo: repo}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	p identity.Principal,
	in GetAvailabilityInput,
) (*dto.AvailabilityDTO, error) {
	prof, err := domain.Professional(ctx, uc.repo, p, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	account, err := uc.repo.GetAccountByID(ctx, p.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	day, err := timezone.ParseDate(account.Timezone, in.Date)
	if err != nil {
		return nil, httperr.ErrBusinessf(domain.ErrInvalidDate, "date must be YYYY-MM-DD")
	}

	cfg, err := schedule.RequireConfig(ctx, uc.repo, prof.ID)
	if err != nil {
		return nil, err
	}

	res, err := schedule.Resolve(ctx, uc.repo, cfg, day)
	if err != nil {
		return nil, err
	}

	out := &dto.AvailabilityDTO{
		Date:     in.Date,
		Bookable: res.Bookable,
		Reason:   string(res.Reason),
		Slots:    []dto.SlotDTO{},
	}
	if !res.Bookable {
		return out, nil
	}

	candidates := res.Window.Slots(day)
	if len(candidates) == 0 {
		return out, nil
	}

	var busy []models.Appointment
	if !cfg.OverbookingAllowed {
		windowEnd := candidates[len(candidates)-1].Add(res.Window.Slot)
		busy, err = uc.repo.ListBlockingAppointments(ctx, prof.ID, candidates[0], windowEnd)
		if err != nil {
			return nil, err
		}
	}

	// busy is ordered by start; skip the prefix that already ended
	idx := 0
	for _, slotStart := range candidates {
		slotEnd := slotStart.Add(res.Window.Slot)

		for idx < len(busy) && !busy[idx].EndTime.After(slotStart) {
			idx++
		}

		free := true
		for j := idx; j < len(busy) && busy[j].StartTime.Before(slotEnd); j++ {
			if busy[j].EndTime.After(slotStart) {
				free = false
				break
			}
		}

		if free {
			out.Slots = append(out.Slots, dto.SlotDTO{Start: slotStart, End: slotEnd})
		}
	}

	return out, nil
}
