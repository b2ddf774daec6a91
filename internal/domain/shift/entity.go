package shift

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// At anchors the wall-clock time to the calendar day of the given moment.
func (t TimeOfDay) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// Config is one named check-in window. Immutable per lookup.
type Config struct {
	Name         string
	Start        TimeOfDay
	End          TimeOfDay
	GraceMinutes int
}

// DefaultWindow is the fallback used when an employee has no assigned shift.
func DefaultWindow() Config {
	return Config{
		Name:         "Default",
		Start:        TimeOfDay{Hour: 9},
		End:          TimeOfDay{Hour: 11},
		GraceMinutes: 15,
	}
}
