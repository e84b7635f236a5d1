package appointment

import (
	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// Transition moves ap to next if the table allows it. Status is the only
// field it touches.
func Transition(ap *models.Appointment, next Status) error {
	current := Status(ap.Status)
	if !CanTransition(current, next) {
		return httperr.ErrBusinessf(
			ErrInvalidTransition,
			"cannot transition from %s to %s",
			current, next,
		)
	}

	ap.Status = string(next)
	return nil
}
