package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/staffing-engine/engine"
)

func TestFlatCalendar(t *testing.T) {
	assert.Equal(t, 160, engine.FlatCalendar{}.BaselineHours(engine.YM(2025, time.February)))
	assert.Equal(t, 184, engine.FlatCalendar{Hours: 184}.BaselineHours(engine.YM(2025, time.February)))

	// Same answer for every month.
	c := engine.FlatCalendar{Hours: 120}
	assert.Equal(t, c.BaselineHours(engine.YM(2025, time.January)), c.BaselineHours(engine.YM(2025, time.July)))
}

func TestBusinessDayCalendar(t *testing.T) {
	c := engine.BusinessDayCalendar{}

	// January 2025 has 23 weekdays.
	assert.Equal(t, 184, c.BaselineHours(engine.YM(2025, time.January)))
	// February 2025 has 20 weekdays.
	assert.Equal(t, 160, c.BaselineHours(engine.YM(2025, time.February)))
	// August 2025 has 21 weekdays.
	assert.Equal(t, 168, c.BaselineHours(engine.YM(2025, time.August)))
}

func TestBusinessDayCalendarCustomDay(t *testing.T) {
	c := engine.BusinessDayCalendar{HoursPerDay: 6}
	assert.Equal(t, 120, c.BaselineHours(engine.YM(2025, time.February)))
}
