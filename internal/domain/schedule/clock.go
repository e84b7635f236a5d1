package schedule

import (
	"fmt"
	"time"
)

// Clock is a naive local wall-clock time in minutes since midnight.
type Clock int

func ParseClock(hm string) (Clock, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", hm)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On places the clock on the calendar day of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(
		day.Year(), day.Month(), day.Day(),
		int(c)/60, int(c)%60, 0, 0,
		day.Location(),
	)
}
