package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
)

func intp(v int) *int { return &v }

func hoursByMonth(allocations []engine.Allocation) map[string]int {
	m := make(map[string]int, len(allocations))
	for _, a := range allocations {
		m[a.Month.String()] = a.Hours
	}
	return m
}

func TestDistributeRemainderGoesLeftToRight(t *testing.T) {
	w := newWorld(t)
	a := w.assign("p-phoenix", "e-kim", 1000)

	// 10 hours over 4 months: base 2, first two months get the extra hour.
	written, err := w.ledger.Distribute(ctxOf(t),
		a, engine.YM(2025, time.January), engine.YM(2025, time.April), intp(10))
	require.NoError(t, err)
	require.Len(t, written, 4)
	assert.Equal(t, []int{3, 3, 2, 2}, []int{
		written[0].Hours, written[1].Hours, written[2].Hours, written[3].Hours})
}

func TestDistributeSumIsExact(t *testing.T) {
	w := newWorld(t)
	a := w.assign("p-phoenix", "e-kim", 2000)

	written, err := w.ledger.Distribute(ctxOf(t),
		a, engine.YM(2025, time.January), engine.YM(2025, time.July), intp(1000))
	require.NoError(t, err)

	sum := 0
	for _, cell := range written {
		sum += cell.Hours
	}
	assert.Equal(t, 1000, sum)

	// No two months differ by more than one hour.
	min, max := written[0].Hours, written[0].Hours
	for _, cell := range written {
		if cell.Hours < min {
			min = cell.Hours
		}
		if cell.Hours > max {
			max = cell.Hours
		}
	}
	assert.LessOrEqual(t, max-min, 1)
}

func TestDistributeOverwritesRangeOnly(t *testing.T) {
	w := newWorld(t)
	a := w.assign("p-phoenix", "e-kim", 1000)

	// Prior entries: one inside the range, one outside.
	w.allocate(a, engine.YM(2025, time.February), 999)
	w.allocate(a, engine.YM(2025, time.June), 50)

	_, err := w.ledger.Distribute(ctxOf(t),
		a, engine.YM(2025, time.January), engine.YM(2025, time.March), intp(300))
	require.NoError(t, err)

	all, err := w.mem.ListAllocationsByAssignment(ctxOf(t), a)
	require.NoError(t, err)
	got := hoursByMonth(all)
	assert.Equal(t, 100, got["2025-01"])
	assert.Equal(t, 100, got["2025-02"]) // overwritten, not summed
	assert.Equal(t, 100, got["2025-03"])
	assert.Equal(t, 50, got["2025-06"]) // untouched
}

func TestDistributeZeroClearsRange(t *testing.T) {
	w := newWorld(t)
	a := w.assign("p-phoenix", "e-kim", 1000)

	w.allocate(a, engine.YM(2025, time.January), 80)
	w.allocate(a, engine.YM(2025, time.February), 80)

	written, err := w.ledger.Distribute(ctxOf(t),
		a, engine.YM(2025, time.January), engine.YM(2025, time.February), intp(0))
	require.NoError(t, err)
	assert.Empty(t, written)

	all, err := w.mem.ListAllocationsByAssignment(ctxOf(t), a)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDistributeDefaultsToRemainingBudget(t *testing.T) {
	w := newWorld(t)
	a := w.assign("p-phoenix", "e-kim", 500)

	// 100 already spent outside the target range leaves 400 to spread.
	w.allocate(a, engine.YM(2025, time.January), 100)

	written, err := w.ledger.Distribute(ctxOf(t),
		a, engine.YM(2025, time.February), engine.YM(2025, time.April), nil)
	require.NoError(t, err)
	require.Len(t, written, 3)
	assert.Equal(t, []int{134, 133, 133}, []int{
		written[0].Hours, written[1].Hours, written[2].Hours})

	budget, err := w.ledger.AssignmentBudget(ctxOf(t), a)
	require.NoError(t, err)
	assert.Equal(t, 0, budget.RemainingHours)
}

func TestDistributeExhaustedBudgetSpreadsNothing(t *testing.T) {
	w := newWorld(t)
	a := w.assign("p-phoenix", "e-kim", 100)
	w.allocate(a, engine.YM(2025, time.January), 150)

	// Remaining is negative; nil total clamps to zero instead of erroring.
	written, err := w.ledger.Distribute(ctxOf(t),
		a, engine.YM(2025, time.February), engine.YM(2025, time.March), nil)
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestDistributeIdempotent(t *testing.T) {
	w := newWorld(t)
	a := w.assign("p-phoenix", "e-kim", 1000)
	from, to := engine.YM(2025, time.January), engine.YM(2025, time.April)

	first, err := w.ledger.Distribute(ctxOf(t), a, from, to, intp(250))
	require.NoError(t, err)
	second, err := w.ledger.Distribute(ctxOf(t), a, from, to, intp(250))
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Hours, second[i].Hours)
		assert.Equal(t, first[i].Month, second[i].Month)
		// Rewrites bump the cell version.
		assert.Equal(t, first[i].Version+1, second[i].Version)
	}
}

func TestDistributeValidation(t *testing.T) {
	w := newWorld(t)
	a := w.assign("p-phoenix", "e-kim", 1000)

	_, err := w.ledger.Distribute(ctxOf(t),
		a, engine.YM(2025, time.April), engine.YM(2025, time.January), intp(100))
	assert.True(t, engine.IsValidation(err))

	_, err = w.ledger.Distribute(ctxOf(t),
		a, engine.YM(2025, time.January), engine.YM(2025, time.April), intp(-10))
	assert.True(t, engine.IsValidation(err))

	_, err = w.ledger.Distribute(ctxOf(t),
		"a-ghost", engine.YM(2025, time.January), engine.YM(2025, time.April), intp(100))
	assert.True(t, engine.IsNotFound(err))
}

func TestDistributeClosedProjectRejected(t *testing.T) {
	w := newWorld(t)
	a := w.assign("p-phoenix", "e-kim", 1000)

	p, err := w.mem.GetProject(ctxOf(t), "p-phoenix")
	require.NoError(t, err)
	p.Status = engine.StatusClosed
	require.NoError(t, w.mem.SaveProject(ctxOf(t), *p))

	_, err = w.ledger.Distribute(ctxOf(t),
		a, engine.YM(2025, time.January), engine.YM(2025, time.April), intp(100))
	assert.True(t, engine.IsValidation(err))
}
