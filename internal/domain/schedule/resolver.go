package schedule

import (
	"time"

	"github.com/agendahq/backoffice/internal/httperr"
)

// Rejection reasons double as business error codes.
type Reason string

const (
	ReasonNonWorkingDay Reason = "non_working_day"
	ReasonHoliday       Reason = "holiday"
	ReasonDayBlocked    Reason = "day_blocked"
)

// Policy is the booking-relevant part of a professional's schedule configuration.
type Policy struct {
	StartTime                 Clock
	EndTime                   Clock
	SlotDuration              time.Duration
	WorkingDays               WorkingDays
	OverbookingAllowed        bool
	AllowBookingOnBlockedDays bool
}

// Override is a per-date exception. Nil fields keep the policy value.
type Override struct {
	Blocked      bool
	StartTime    *Clock
	EndTime      *Clock
	SlotDuration *time.Duration
}

// DayFacts carries the per-date lookups the resolver needs.
type DayFacts struct {
	Holiday  bool
	Override *Override
}

type Window struct {
	Start Clock
	End   Clock
	Slot  time.Duration
}

// Contains reports whether c falls in [Start, End).
func (w Window) Contains(c Clock) bool {
	return c >= w.Start && c < w.End
}

type Resolution struct {
	Date     time.Time
	Weekday  Weekday
	Bookable bool
	Reason   Reason
	Window   Window
}

// Err converts a rejected resolution into its business error; nil when bookable.
func (r Resolution) Err() error {
	if r.Bookable {
		return nil
	}
	return httperr.ErrBusinessf(string(r.Reason), "%s is not bookable (%s)", r.Date.Format("2006-01-02"), r.Weekday)
}

// Resolve decides whether date is bookable under p. It is a pure function:
// callers supply the holiday and override lookups in facts.
func Resolve(p Policy, date time.Time, facts DayFacts) Resolution {
	res := Resolution{
		Date:    date,
		Weekday: WeekdayOf(date),
		Window: Window{
			Start: p.StartTime,
			End:   p.EndTime,
			Slot:  p.SlotDuration,
		},
	}

	if !p.WorkingDays.Contains(res.Weekday) && !p.AllowBookingOnBlockedDays {
		res.Reason = ReasonNonWorkingDay
		return res
	}

	if facts.Holiday && !p.AllowBookingOnBlockedDays {
		res.Reason = ReasonHoliday
		return res
	}

	if o := facts.Override; o != nil {
		if o.Blocked && !p.AllowBookingOnBlockedDays {
			res.Reason = ReasonDayBlocked
			return res
		}
		if o.StartTime != nil {
			res.Window.Start = *o.StartTime
		}
		if o.EndTime != nil {
			res.Window.End = *o.EndTime
		}
		if o.SlotDuration != nil && *o.SlotDuration > 0 {
			res.Window.Slot = *o.SlotDuration
		}
	}

	res.Bookable = true
	return res
}

// Slots enumerates slot starts [Start, Start+Slot) that fit entirely in the window.
func (w Window) Slots(day time.Time) []time.Time {
	if w.Slot <= 0 {
		return nil
	}
	dayStart := w.Start.On(day)
	dayEnd := w.End.On(day)

	var out []time.Time
	for cur := dayStart; !cur.Add(w.Slot).After(dayEnd); cur = cur.Add(w.Slot) {
		out = append(out, cur)
	}
	return out
}
