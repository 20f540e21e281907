package service

import (
	"github.com/limbo/lumi/pkg/dayclock"
	"github.com/limbo/lumi/pkg/entity"
)

// dayResolver turns the clock into the logical date of a given user.
type dayResolver struct {
	clock           dayclock.Clock
	defaultTimezone string
}

func newDayResolver(clock dayclock.Clock, defaultTimezone string) dayResolver {
	if clock == nil {
		clock = dayclock.SystemClock{}
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return dayResolver{
		clock:           clock,
		defaultTimezone: defaultTimezone,
	}
}

func (d dayResolver) window(user *entity.User) dayclock.Window {
	w := dayclock.Window{
		Start:    user.DayStartTime,
		End:      user.DayEndTime,
		Timezone: user.Timezone,
	}
	if w.Timezone == "" {
		w.Timezone = d.defaultTimezone
	}
	return w
}

func (d dayResolver) today(user *entity.User) (string, error) {
	return dayclock.Today(d.clock, d.window(user))
}
