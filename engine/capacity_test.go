package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/engine/store"
)

func newCapacityFixture(t *testing.T) (*testFixtureWorld, *engine.Capacity) {
	t.Helper()
	w := newWorld(t)
	return w, engine.NewCapacity(w.mem, engine.FlatCalendar{})
}

// testFixtureWorld is the shared setup for the read-side tests.
type testFixtureWorld struct {
	t      *testing.T
	mem    *store.Memory
	ledger *engine.Ledger
}

func newWorld(t *testing.T) *testFixtureWorld {
	ctx, mem, ledger := newFixture(t)
	_ = ctx
	return &testFixtureWorld{t: t, mem: mem, ledger: ledger}
}

func (w *testFixtureWorld) assign(project engine.ProjectID, employee engine.EmployeeID, funded int) engine.AssignmentID {
	w.t.Helper()
	a, err := w.ledger.CreateAssignment(ctxOf(w.t), project, employee, "", "", funded)
	require.NoError(w.t, err)
	return a.ID
}

func (w *testFixtureWorld) allocate(id engine.AssignmentID, ym engine.YearMonth, hours int) {
	w.t.Helper()
	_, err := w.ledger.UpsertAllocation(ctxOf(w.t), id, ym, hours, engine.VersionAny)
	require.NoError(w.t, err)
}

func TestEmployeeMonthSumsAcrossProjects(t *testing.T) {
	w, capacity := newCapacityFixture(t)
	mar := engine.YM(2025, time.March)

	a1 := w.assign("p-phoenix", "e-kim", 1000)
	a2 := w.assign("p-quasar", "e-kim", 500)
	w.allocate(a1, mar, 100)
	w.allocate(a2, mar, 80)

	m, err := capacity.EmployeeMonth(ctxOf(t), "e-kim", mar)
	require.NoError(t, err)

	// 100/160 + 80/160 = 1.125
	assert.Equal(t, 180, m.TotalHours)
	assert.True(t, m.FTE.Equal(decimal.RequireFromString("1.125")), "got %s", m.FTE)
	assert.True(t, m.OverAllocated())

	// Breakdown sorted by hours descending.
	require.Len(t, m.Projects, 2)
	assert.Equal(t, engine.ProjectID("p-phoenix"), m.Projects[0].ProjectID)
	assert.Equal(t, 100, m.Projects[0].Hours)
	assert.Equal(t, "Phoenix", m.Projects[0].ProjectName)
}

func TestExactlyFullIsNotOverAllocated(t *testing.T) {
	w, capacity := newCapacityFixture(t)
	mar := engine.YM(2025, time.March)

	a1 := w.assign("p-phoenix", "e-kim", 1000)
	a2 := w.assign("p-quasar", "e-kim", 500)
	w.allocate(a1, mar, 80)
	w.allocate(a2, mar, 80)

	m, err := capacity.EmployeeMonth(ctxOf(t), "e-kim", mar)
	require.NoError(t, err)
	assert.True(t, m.FTE.Equal(decimal.NewFromInt(1)))
	assert.False(t, m.OverAllocated())

	// One hour more tips it.
	w.allocate(a2, mar, 81)
	m, err = capacity.EmployeeMonth(ctxOf(t), "e-kim", mar)
	require.NoError(t, err)
	assert.True(t, m.OverAllocated())
}

func TestOverrideChangesDenominatorOnNextRead(t *testing.T) {
	w, capacity := newCapacityFixture(t)
	mar := engine.YM(2025, time.March)

	a := w.assign("p-phoenix", "e-kim", 1000)
	w.allocate(a, mar, 88)

	// Against the 160h baseline: 0.55.
	m, err := capacity.EmployeeMonth(ctxOf(t), "e-kim", mar)
	require.NoError(t, err)
	assert.True(t, m.FTE.Equal(decimal.RequireFromString("0.55")), "got %s", m.FTE)

	// A crunch-month override to 176h makes the same 88 hours exactly half.
	_, err = w.ledger.SetOverride(ctxOf(t), "p-phoenix", mar, 176)
	require.NoError(t, err)

	m, err = capacity.EmployeeMonth(ctxOf(t), "e-kim", mar)
	require.NoError(t, err)
	assert.True(t, m.FTE.Equal(decimal.RequireFromString("0.5")), "got %s", m.FTE)

	// Clearing falls back to the baseline.
	require.NoError(t, w.ledger.ClearOverride(ctxOf(t), "p-phoenix", mar))
	m, err = capacity.EmployeeMonth(ctxOf(t), "e-kim", mar)
	require.NoError(t, err)
	assert.True(t, m.FTE.Equal(decimal.RequireFromString("0.55")))
}

func TestOverrideScopesToItsOwnProject(t *testing.T) {
	w, capacity := newCapacityFixture(t)
	mar := engine.YM(2025, time.March)

	a1 := w.assign("p-phoenix", "e-kim", 1000)
	a2 := w.assign("p-quasar", "e-kim", 500)
	w.allocate(a1, mar, 88)
	w.allocate(a2, mar, 40)

	// Only Phoenix runs a 176h month; Quasar stays on the 160h baseline.
	_, err := w.ledger.SetOverride(ctxOf(t), "p-phoenix", mar, 176)
	require.NoError(t, err)

	m, err := capacity.EmployeeMonth(ctxOf(t), "e-kim", mar)
	require.NoError(t, err)

	// 88/176 + 40/160 = 0.5 + 0.25 = 0.75
	assert.True(t, m.FTE.Equal(decimal.RequireFromString("0.75")), "got %s", m.FTE)
	for _, p := range m.Projects {
		switch p.ProjectID {
		case "p-phoenix":
			assert.Equal(t, 176, p.EffectiveHours)
		case "p-quasar":
			assert.Equal(t, 160, p.EffectiveHours)
		}
	}
}

func TestEmployeeMonthEmpty(t *testing.T) {
	_, capacity := newCapacityFixture(t)

	m, err := capacity.EmployeeMonth(ctxOf(t), "e-kim", engine.YM(2025, time.March))
	require.NoError(t, err)
	assert.Zero(t, m.TotalHours)
	assert.True(t, m.FTE.IsZero())
	assert.False(t, m.OverAllocated())
	assert.Empty(t, m.Projects)
}

func TestEffectiveHours(t *testing.T) {
	w, capacity := newCapacityFixture(t)
	mar := engine.YM(2025, time.March)

	hours, err := capacity.EffectiveHours(ctxOf(t), "p-phoenix", mar)
	require.NoError(t, err)
	assert.Equal(t, 160, hours)

	_, err = w.ledger.SetOverride(ctxOf(t), "p-phoenix", mar, 140)
	require.NoError(t, err)

	hours, err = capacity.EffectiveHours(ctxOf(t), "p-phoenix", mar)
	require.NoError(t, err)
	assert.Equal(t, 140, hours)
}

func TestCellFTE(t *testing.T) {
	w, capacity := newCapacityFixture(t)
	mar := engine.YM(2025, time.March)

	a := w.assign("p-phoenix", "e-kim", 1000)
	cell, err := w.ledger.UpsertAllocation(ctxOf(t), a, mar, 40, engine.VersionAny)
	require.NoError(t, err)

	got, err := capacity.CellFTE(ctxOf(t), *cell)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("0.25")), "got %s", got)
}
