package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
)

func TestYearMonthOrdering(t *testing.T) {
	jan := engine.YM(2025, time.January)
	dec := engine.YM(2024, time.December)
	assert.True(t, dec.Before(jan))
	assert.True(t, jan.After(dec))
	assert.True(t, jan.Equal(engine.YM(2025, time.January)))
	assert.False(t, jan.Before(jan))
}

func TestYearMonthNextCrossesYear(t *testing.T) {
	assert.Equal(t, engine.YM(2026, time.January), engine.YM(2025, time.December).Next())
	assert.Equal(t, engine.YM(2025, time.July), engine.YM(2025, time.June).Next())
}

func TestYearMonthAdd(t *testing.T) {
	jun := engine.YM(2025, time.June)
	assert.Equal(t, engine.YM(2025, time.September), jun.Add(3))
	assert.Equal(t, engine.YM(2026, time.February), jun.Add(8))
	assert.Equal(t, engine.YM(2024, time.November), jun.Add(-7))
	assert.Equal(t, jun, jun.Add(0))
}

func TestYearMonthString(t *testing.T) {
	assert.Equal(t, "2025-03", engine.YM(2025, time.March).String())
	assert.Equal(t, "2025-11", engine.YM(2025, time.November).String())
}

func TestParseYearMonth(t *testing.T) {
	ym, err := engine.ParseYearMonth("2025-06")
	require.NoError(t, err)
	assert.Equal(t, engine.YM(2025, time.June), ym)

	for _, bad := range []string{"2025-13", "2025/06", "June 2025", "2025-6", ""} {
		_, err := engine.ParseYearMonth(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestYearMonthValid(t *testing.T) {
	assert.True(t, engine.YM(2025, time.January).Valid())
	assert.True(t, engine.YM(2025, time.December).Valid())
	assert.False(t, engine.YearMonth{Year: 2025, Month: 0}.Valid())
	assert.False(t, engine.YearMonth{Year: 2025, Month: 13}.Valid())
}

func TestIterMonths(t *testing.T) {
	months := engine.IterMonths(engine.YM(2025, time.November), engine.YM(2026, time.February))
	require.Len(t, months, 4)
	assert.Equal(t, engine.YM(2025, time.November), months[0])
	assert.Equal(t, engine.YM(2025, time.December), months[1])
	assert.Equal(t, engine.YM(2026, time.January), months[2])
	assert.Equal(t, engine.YM(2026, time.February), months[3])

	// Single month is inclusive on both ends.
	single := engine.IterMonths(engine.YM(2025, time.March), engine.YM(2025, time.March))
	require.Len(t, single, 1)

	// Reversed range yields nothing.
	assert.Empty(t, engine.IterMonths(engine.YM(2025, time.April), engine.YM(2025, time.March)))
}
