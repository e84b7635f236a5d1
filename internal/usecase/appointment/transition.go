package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/agendahq/backoffice/internal/audit"
	domain "github.com/agendahq/backoffice/internal/domain/appointment"
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/identity"
	"github.com/agendahq/backoffice/internal/metrics"
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/notify"
)

type UpdateStatusInput struct {
	ProfessionalID uint
	AppointmentID  uint
	Status         string
}

type UpdateStatus struct {
	repo    domain.Repository
	notify  Notifier
	audit   *audit.Dispatcher
	metrics *metrics.Metrics
}

func NewUpdateStatus(
	repo domain.Repository,
	notifier Notifier,
	audit *audit.Dispatcher,
	m *metrics.Metrics,
) *UpdateStatus {
	return &UpdateStatus{
		repo:    repo,
		notify:  notifierOrNoop(notifier),
		audit:   audit,
		metrics: m,
	}
}

func (uc *UpdateStatus) Execute(
	ctx context.Context,
	p identity.Principal,
	in UpdateStatusInput,
) (*models.Appointment, error) {
	next, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, httperr.ErrBusinessf(domain.ErrInvalidStatus, "unknown status %q", in.Status)
	}

	prof, err := domain.Professional(ctx, uc.repo, p, in.ProfessionalID)
	if err != nil {
		return nil, err
	}

	var (
		ap   *models.Appointment
		prev string
	)
	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		ap, err = tx.GetAppointmentForProfessional(ctx, in.AppointmentID, prof.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return httperr.ErrBusiness(domain.ErrNotAuthorized)
		}
		if err != nil {
			return fmt.Errorf("load appointment: %w", err)
		}

		prev = ap.Status
		if err := domain.Transition(ap, next); err != nil {
			return err
		}
		return tx.UpdateAppointmentStatus(ctx, ap)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.Transition(prev, ap.Status)
	uc.audit.Dispatch(audit.Event{
		AccountID: p.AccountID,
		UserID:    &p.UserID,
		Action:    "appointment_status_changed",
		Entity:    "appointment",
		EntityID:  &ap.ID,
		Metadata:  map[string]any{"from": prev, "to": ap.Status},
	})

	ev := eventFor(notify.EventAppointmentStatusChanged, p.AccountID, ap)
	ev.PreviousStatus = prev
	uc.notify.Dispatch(ev)

	return ap, nil
}
