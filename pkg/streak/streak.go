// Package streak advances the consecutive balanced-day counter.
package streak

import (
	"fmt"
	"time"

	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/entity"
)

const DateLayout = time.DateOnly

// Advance applies one evaluation of date to state. Repeating the same
// (date, balanced) pair leaves the state as the first call produced it.
// An unbalanced day only resets the streak once more than one day has
// passed since the last balanced date. Dates before the last balanced date
// return ErrOutOfOrderDate together with the untouched state.
func Advance(state entity.StreakState, date string, balanced bool) (entity.StreakState, error) {
	if _, err := ParseDate(date); err != nil {
		return state, err
	}
	next := state
	if state.LastBalancedDate == nil {
		if balanced {
			next.CurrentStreak = 1
			next.LongestStreak = max(state.LongestStreak, 1)
			next.LastBalancedDate = &date
		}
		return next, nil
	}
	gap, err := DaysBetween(*state.LastBalancedDate, date)
	if err != nil {
		return state, err
	}
	if gap < 0 {
		return state, fmt.Errorf("%w: %s before %s", errorvalues.ErrOutOfOrderDate, date, *state.LastBalancedDate)
	}
	if !balanced {
		if gap > 1 {
			next.CurrentStreak = 0
		}
		return next, nil
	}
	switch {
	case gap == 0:
		// same day evaluated again
	case gap == 1:
		next.CurrentStreak = state.CurrentStreak + 1
		next.LongestStreak = max(state.LongestStreak, next.CurrentStreak)
		next.LastBalancedDate = &date
	default:
		next.CurrentStreak = 1
		next.LongestStreak = max(state.LongestStreak, 1)
		next.LastBalancedDate = &date
	}
	return next, nil
}

func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errorvalues.ErrInvalidDate, date)
	}
	return t, nil
}

// DaysBetween returns to - from in calendar days.
func DaysBetween(from, to string) (int, error) {
	f, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	// both are UTC midnights, so the difference is a whole number of days
	return int(t.Sub(f).Hours() / 24), nil
}
