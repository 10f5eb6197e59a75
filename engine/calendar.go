/*
calendar.go - Baseline month capacity

PURPOSE:
  Answers "how many working hours constitute 100% FTE in this month,
  before any project override". Pure functions of the calendar with no
  failure mode.

TWO CALENDARS:
  FlatCalendar:        A flat constant per month (the grid's behavior;
                       default 160). All percentage math in the system is
                       relative to whichever calendar is configured, so the
                       choice is made once at startup.
  BusinessDayCalendar: Weekday count x hours-per-day, the derivation the
                       reporting path of the source system used.

SEE ALSO:
  - capacity.go: override-aware effective hours built on top of this
*/
package engine

import "time"

// DefaultMonthHours is the flat baseline used when nothing is configured.
const DefaultMonthHours = 160

// Override bounds. Values outside this range fail validation at write time.
const (
	MinOverrideHours = 40
	MaxOverrideHours = 320
)

// Calendar computes the default working hours for a month, before overrides.
// Implementations must be pure and deterministic.
type Calendar interface {
	BaselineHours(ym YearMonth) int
}

// =============================================================================
// FLAT CALENDAR - Constant hours per month
// =============================================================================

// FlatCalendar returns the same baseline for every month.
// A zero Hours field falls back to DefaultMonthHours.
type FlatCalendar struct {
	Hours int
}

func (c FlatCalendar) BaselineHours(YearMonth) int {
	if c.Hours > 0 {
		return c.Hours
	}
	return DefaultMonthHours
}

// =============================================================================
// BUSINESS-DAY CALENDAR - Weekdays x hours per day
// =============================================================================

// BusinessDayCalendar derives the baseline from the number of weekdays in
// the month. A zero HoursPerDay field falls back to 8.
type BusinessDayCalendar struct {
	HoursPerDay int
}

func (c BusinessDayCalendar) BaselineHours(ym YearMonth) int {
	perDay := c.HoursPerDay
	if perDay <= 0 {
		perDay = 8
	}
	days := 0
	for d := ym.FirstDay(); d.Month() == ym.Month; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days * perDay
}
