package appointment

import "fmt"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusCheckedIn   Status = "checked_in"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
	StatusRescheduled Status = "rescheduled"
)

var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusCheckedIn,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
	StatusRescheduled,
}

// transitions is the only transition table. Statuses absent from it, or
// mapped to an empty set, are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// BlockingStatuses occupy their slot for conflict detection. Cancelled and
// rescheduled appointments release it.
var BlockingStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusCheckedIn,
	StatusInProgress,
	StatusCompleted,
	StatusNoShow,
}

func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status: %q", s)
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// AllowedFrom returns a copy of the statuses reachable from s.
func AllowedFrom(s Status) []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InitialStatus is confirmed when a privileged user books on behalf of
// another professional, pending otherwise.
func InitialStatus(onBehalf bool) Status {
	if onBehalf {
		return StatusConfirmed
	}
	return StatusPending
}

func BlockingStatusStrings() []string {
	out := make([]string, 0, len(BlockingStatuses))
	for _, s := range BlockingStatuses {
		out = append(out, string(s))
	}
	return out
}
