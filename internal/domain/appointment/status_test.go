package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendahq/backoffice/internal/httperr"
	"github.com/agendahq/backoffice/internal/models"
)

var allowed = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func isListed(from, to Status) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

func TestTransition_Closure(t *testing.T) {
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			ap := &models.Appointment{Status: string(from)}
			err := Transition(ap, to)

			if isListed(from, to) {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, string(to), ap.Status)
				continue
			}

			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, httperr.IsBusiness(err, ErrInvalidTransition))
			assert.Contains(t, err.Error(), string(from))
			assert.Contains(t, err.Error(), string(to))
			assert.Equal(t, string(from), ap.Status, "status must not change on rejection")
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), s)
		assert.Empty(t, AllowedFrom(s), s)
	}
	assert.False(t, StatusPending.Terminal())
}

func TestAllowedFrom_ReturnsCopy(t *testing.T) {
	next := AllowedFrom(StatusPending)
	next[0] = StatusCompleted

	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("checked_in")
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, s)

	_, err = ParseStatus("scheduled")
	assert.Error(t, err)
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPending, InitialStatus(false))
	assert.Equal(t, StatusConfirmed, InitialStatus(true))
}

func TestBlockingStatuses_ExcludeReleased(t *testing.T) {
	blocking := BlockingStatusStrings()
	assert.NotContains(t, blocking, string(StatusCancelled))
	assert.NotContains(t, blocking, string(StatusRescheduled))
	assert.Contains(t, blocking, string(StatusPending))
}
