package appointment

import (
	"github.com/agendahq/backoffice/internal/models"
	"github.com/agendahq/backoffice/internal/notify"
)

// Notifier accepts fire-and-forget events. *notify.Dispatcher implements it.
type Notifier interface {
	Dispatch(ev notify.Event)
}

type noopNotifier struct{}

func (noopNotifier) Dispatch(notify.Event) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func eventFor(kind string, accountID uint, ap *models.Appointment) notify.Event {
	return notify.Event{
		Type:           kind,
		AccountID:      accountID,
		ProfessionalID: ap.ProfessionalID,
		AppointmentID:  ap.ID,
		Title:          ap.Title,
		Status:         ap.Status,
		StartTime:      ap.StartTime,
	}
}
