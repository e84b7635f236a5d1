package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Weekday uses ISO ordering: Monday=0 .. Sunday=6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return "weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

// ParseWeekday accepts a lowercase English name ("monday"), its three-letter
// prefix ("mon") or an ISO index ("0".."6").
func ParseWeekday(s string) (Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(v); err == nil {
		d := Weekday(n)
		if !d.Valid() {
			return 0, fmt.Errorf("weekday index out of range: %d", n)
		}
		return d, nil
	}
	for i, name := range weekdayNames {
		if v == name || (len(v) == 3 && strings.HasPrefix(name, v)) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WorkingDays is the canonical working-day set. JSON input may mix ISO
// indexes and day names; output and storage are always sorted indexes.
type WorkingDays []Weekday

func NewWorkingDays(days ...Weekday) WorkingDays {
	return WorkingDays(days).normalize()
}

func (w WorkingDays) Contains(d Weekday) bool {
	for _, wd := range w {
		if wd == d {
			return true
		}
	}
	return false
}

func (w WorkingDays) Names() []string {
	out := make([]string, 0, len(w))
	for _, d := range w {
		out = append(out, d.String())
	}
	return out
}

func (w WorkingDays) normalize() WorkingDays {
	seen := make(map[Weekday]struct{}, len(w))
	out := make(WorkingDays, 0, len(w))
	for _, d := range w {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *WorkingDays) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("working days must be an array: %w", err)
	}

	days := make(WorkingDays, 0, len(raw))
	for _, item := range raw {
		var n int
		if err := json.Unmarshal(item, &n); err == nil {
			d := Weekday(n)
			if !d.Valid() {
				return fmt.Errorf("weekday index out of range: %d", n)
			}
			days = append(days, d)
			continue
		}

		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return fmt.Errorf("invalid weekday %s", string(item))
		}
		d, err := ParseWeekday(s)
		if err != nil {
			return err
		}
		days = append(days, d)
	}

	*w = days.normalize()
	return nil
}

func (w WorkingDays) MarshalJSON() ([]byte, error) {
	ints := make([]int, 0, len(w))
	for _, d := range w {
		ints = append(ints, int(d))
	}
	return json.Marshal(ints)
}

// Value stores the set as a JSON array of indexes.
func (w WorkingDays) Value() (driver.Value, error) {
	b, err := w.normalize().MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads both the canonical index form and legacy name arrays.
func (w *WorkingDays) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*w = WorkingDays{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("unsupported working days column type")
	}
	if len(b) == 0 {
		*w = WorkingDays{}
		return nil
	}
	return w.UnmarshalJSON(b)
}
