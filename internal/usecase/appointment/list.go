package appointment

import (
	"context"
	"time"

	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/dto"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/timezone"
)

type ListAppointmentsInput struct {
	ProfessionalID uint

	// Inclusive YYYY-MM-DD bounds in the account timezone; optional.
	From   string
	To     string
	Status string
}

type ListAppointments struct {
	repo domain.Repository
}

func NewListAppointments(repo domain.Repository) *ListAppointments {
	return &ListAppointments{repo: repo}
}

func (uc *ListAppointments) Execute(
	ctx context.Context,
	p identity.Principal,
	in ListAppointmentsInput,
) ([]dto.AppointmentListDTO, error) {
	prof, err := domain.Professional(ctx, uc.repo, p, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	account, err := uc.repo.GetAccountByID(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}

	filter := domain.ListFilter{ProfessionalID: prof.ID}

	if in.From != "" {
		from, err := timezone.ParseDate(account.Timezone, in.From)
		if err != nil {
			return nil, httperr.ErrBusinessf(domain.ErrInvalidDate, "from must be YYYY-MM-DD")
		}
		filter.From = &from
	}
	if in.To != "" {
		to, err := timezone.ParseDate(account.Timezone, in.To)
		if err != nil {
			return nil, httperr.ErrBusinessf(domain.ErrInvalidDate, "to must be YYYY-MM-DD")
		}
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}
	if in.Status != "" {
		s, err := domain.ParseStatus(in.Status)
		if err != nil {
			return nil, httperr.ErrBusinessf(domain.ErrInvalidStatus, "unknown status %q", in.Status)
		}
		filter.Status = &s
	}

	appointments, err := uc.repo.ListAppointments(ctx, filter)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(account.Timezone)
	out := make([]dto.AppointmentListDTO, 0, len(appointments))
	for i := range appointments {
		out = append(out, ToListDTO(&appointments[i], loc))
	}
	return out, nil
}

func ToListDTO(ap *models.Appointment, loc *time.Location) dto.AppointmentListDTO {
	out := dto.AppointmentListDTO{
		ID:             ap.ID,
		ProfessionalID: ap.ProfessionalID,
		Title:          ap.Title,
		Description:    ap.Description,
		StartTime:      ap.StartTime.In(loc),
		EndTime:        ap.EndTime.In(loc),
		Status:         ap.Status,
		ClientID:       ap.ClientID,
		ReminderSentAt: ap.ReminderSentAt,
	}
	if ap.Client != nil {
		out.ClientName = ap.Client.Name
	}
	return out
}
