// Package dayclock resolves the logical day an event belongs to from the
// user's timezone and day window.
package dayclock

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const (
	DateLayout = time.DateOnly
	TimeLayout = "15:04"

	DefaultDayStart = "06:00"
	DefaultDayEnd   = "22:00"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Window is the part of the calendar a user considers their day. Only Start
// moves the date boundary; End is carried for display and never read here.
type Window struct {
	Start    string
	End      string
	Timezone string
}

// LoadLocation treats "" and "Local" as the process timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// ParseTimeToMinutes parses HH:MM into minutes after midnight.
func ParseTimeToMinutes(s string) (int, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// LogicalDate returns the YYYY-MM-DD day that now belongs to. Instants
// before the window start are still part of the previous day; the window
// end does not move the boundary.
func LogicalDate(now time.Time, w Window) (string, error) {
	loc, err := LoadLocation(w.Timezone)
	if err != nil {
		return "", err
	}
	start := w.Start
	if start == "" {
		start = DefaultDayStart
	}
	startMin, err := ParseTimeToMinutes(start)
	if err != nil {
		return "", err
	}
	local := now.In(loc)
	if local.Hour()*60+local.Minute() < startMin {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format(DateLayout), nil
}

// Today resolves the logical date of clock.Now() for w.
func Today(clock Clock, w Window) (string, error) {
	return LogicalDate(clock.Now(), w)
}
