package timezone

import (
	"errors"
	"sync/atomic"
	"time"
)

const DefaultTimezone = "America/Sao_Paulo"

var fallback atomic.Value

// SetDefault replaces the zone used when an account has none configured.
func SetDefault(tz string) {
	if IsValid(tz) {
		fallback.Store(tz)
	}
}

// Default is the zone applied when an account has none configured.
func Default() string {
	if v, ok := fallback.Load().(string); ok {
		return v
	}
	return DefaultTimezone
}

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	loc, err := time.LoadLocation(Default())
	if err != nil {
		return time.UTC
	}
	return loc
}

func Now() time.Time {
	return time.Now().In(Location(Default()))
}

func NowIn(tz string) time.Time {
	return time.Now().In(Location(tz))
}

// ParseDate parses YYYY-MM-DD as midnight in tz.
func ParseDate(tz, s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, Location(tz))
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var ErrInvalidDateTime = errors.New("invalid date-time")

// ParseDateTime accepts RFC 3339 (converted into tz) or a naive ISO
// date-time interpreted as local wall-clock time in tz.
func ParseDateTime(tz, s string) (time.Time, error) {
	loc := Location(tz)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDateTime
}

// DateKey formats t as the YYYY-MM-DD key used by holidays and overrides.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
