// Package clock computes the current challenge day. The 90-day window is
// anchored to a recurring seasonal start: November 5 of the current year, or
// of the previous year while November has not yet arrived.
package clock

import (
	"time"

	"goal-challenge-bot/internal/model"
)

// Start months/days of the seasonal challenge.
const (
	startMonth = time.November
	startDay   = 5
)

// StartDate returns the challenge start date for the given "now".
func StartDate(now time.Time) time.Time {
	year := now.Year()
	if now.Month() < startMonth {
		year--
	}
	return time.Date(year, startMonth, startDay, 0, 0, 0, 0, now.Location())
}

// CurrentDayAt returns the challenge day index for the given "now".
// A manual current_day override in settings takes precedence and is not
// clamped further; otherwise the computed day is clamped into
// [1, model.TotalDays].
func CurrentDayAt(settings model.Settings, now time.Time) int {
	if day, ok := settings.CurrentDay(); ok {
		return day
	}
	start := StartDate(now)
	day := int(now.Sub(start).Hours()/24) + 1
	if day < 1 {
		return 1
	}
	if day > model.TotalDays {
		return model.TotalDays
	}
	return day
}

// CurrentDay returns the challenge day index for the present moment,
// honoring the configured time offset.
func CurrentDay(settings model.Settings) int {
	return CurrentDayAt(settings, Now(settings))
}

// Now returns the current wall-clock time shifted by the configured
// time_offset_hours setting.
func Now(settings model.Settings) time.Time {
	return time.Now().Add(time.Duration(settings.TimeOffsetHours()) * time.Hour)
}
