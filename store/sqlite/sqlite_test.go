package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/engine"
)

func newTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.SaveProject(ctx, engine.Project{
		ID: "p1", Code: "PHX", Name: "Phoenix", Status: engine.StatusActive,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Sprints: 6,
	}))
	require.NoError(t, s.SaveEmployee(ctx, engine.Employee{
		ID: "e1", Email: "kim@example.com", Name: "Kim Reyes", Active: true,
	}))
	return s, ctx
}

func seedAssignment(t *testing.T, s *Store, ctx context.Context, id engine.AssignmentID) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.InsertAssignment(ctx, engine.Assignment{
		ID: id, ProjectID: "p1", EmployeeID: "e1",
		RoleID: "role-eng", LCATID: "lcat-senior", FundedHours: 500,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func TestProjectRoundtrip(t *testing.T) {
	s, ctx := newTestStore(t)

	p, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "PHX", p.Code)
	assert.Equal(t, engine.StatusActive, p.Status)
	assert.Equal(t, 6, p.Sprints)

	// Save on the same id updates in place.
	p.Status = engine.StatusClosed
	require.NoError(t, s.SaveProject(ctx, *p))
	p, err = s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, engine.StatusClosed, p.Status)

	missing, err := s.GetProject(ctx, "p-ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProjectCodeUnique(t *testing.T) {
	s, ctx := newTestStore(t)
	err := s.SaveProject(ctx, engine.Project{
		ID: "p2", Code: "PHX", Name: "Another",
		StartDate: time.Now(), Sprints: 1, Status: engine.StatusActive,
	})
	assert.True(t, engine.IsConflict(err))
}

func TestEmployeeRoundtrip(t *testing.T) {
	s, ctx := newTestStore(t)

	e, err := s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.Active)

	e.Active = false
	require.NoError(t, s.SaveEmployee(ctx, *e))
	e, err = s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, e.Active)
}

func TestAssignmentPairUnique(t *testing.T) {
	s, ctx := newTestStore(t)
	seedAssignment(t, s, ctx, "a1")

	now := time.Now().UTC()
	err := s.InsertAssignment(ctx, engine.Assignment{
		ID: "a2", ProjectID: "p1", EmployeeID: "e1", FundedHours: 100,
		CreatedAt: now, UpdatedAt: now,
	})
	assert.True(t, engine.IsConflict(err))

	found, err := s.FindAssignment(ctx, "p1", "e1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, engine.AssignmentID("a1"), found.ID)
}

func TestAssignmentUpdateAndDelete(t *testing.T) {
	s, ctx := newTestStore(t)
	seedAssignment(t, s, ctx, "a1")

	a, err := s.GetAssignment(ctx, "a1")
	require.NoError(t, err)
	a.FundedHours = 750
	a.RoleID = "role-lead"
	require.NoError(t, s.UpdateAssignment(ctx, *a))

	a, err = s.GetAssignment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 750, a.FundedHours)
	assert.Equal(t, "role-lead", a.RoleID)

	require.NoError(t, s.DeleteAssignment(ctx, "a1"))
	assert.True(t, engine.IsNotFound(s.DeleteAssignment(ctx, "a1")))
	assert.True(t, engine.IsNotFound(s.UpdateAssignment(ctx, *a)))
}

func TestAllocationUpsertKeepsSingleRow(t *testing.T) {
	s, ctx := newTestStore(t)
	seedAssignment(t, s, ctx, "a1")
	mar := engine.YM(2025, time.March)

	cell := engine.Allocation{
		ID: "alloc-1", AssignmentID: "a1", Month: mar,
		Hours: 100, Version: 1, UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.PutAllocation(ctx, cell))

	cell.Hours = 120
	cell.Version = 2
	require.NoError(t, s.PutAllocation(ctx, cell))

	all, err := s.ListAllocationsByAssignment(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 120, all[0].Hours)
	assert.Equal(t, int64(2), all[0].Version)
	assert.Equal(t, mar, all[0].Month)
}

func TestDeleteAssignmentCascadesAllocations(t *testing.T) {
	s, ctx := newTestStore(t)
	seedAssignment(t, s, ctx, "a1")
	mar := engine.YM(2025, time.March)

	require.NoError(t, s.PutAllocation(ctx, engine.Allocation{
		ID: "alloc-1", AssignmentID: "a1", Month: mar,
		Hours: 80, Version: 1, UpdatedAt: time.Now().UTC(),
	}))
	require.NoError(t, s.DeleteAssignment(ctx, "a1"))

	cell, err := s.GetAllocation(ctx, "a1", mar)
	require.NoError(t, err)
	assert.Nil(t, cell)
}

func TestListAllocationsByEmployeeRange(t *testing.T) {
	s, ctx := newTestStore(t)
	seedAssignment(t, s, ctx, "a1")

	for _, ym := range []engine.YearMonth{
		engine.YM(2024, time.December),
		engine.YM(2025, time.January),
		engine.YM(2025, time.February),
		engine.YM(2025, time.March),
	} {
		require.NoError(t, s.PutAllocation(ctx, engine.Allocation{
			ID: "alloc-" + ym.String(), AssignmentID: "a1", Month: ym,
			Hours: 40, Version: 1, UpdatedAt: time.Now().UTC(),
		}))
	}

	got, err := s.ListAllocationsByEmployee(ctx, "e1",
		engine.YM(2025, time.January), engine.YM(2025, time.February))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, engine.YM(2025, time.January), got[0].Month)
	assert.Equal(t, engine.YM(2025, time.February), got[1].Month)
}

func TestOverrideUpsertAndDelete(t *testing.T) {
	s, ctx := newTestStore(t)
	mar := engine.YM(2025, time.March)

	require.NoError(t, s.PutOverride(ctx, engine.MonthlyOverride{
		ID: "ov-1", ProjectID: "p1", Month: mar, Hours: 150,
	}))
	// Same (project, month) updates the single row.
	require.NoError(t, s.PutOverride(ctx, engine.MonthlyOverride{
		ID: "ov-2", ProjectID: "p1", Month: mar, Hours: 176,
	}))

	overrides, err := s.ListOverridesByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, 176, overrides[0].Hours)

	require.NoError(t, s.DeleteOverride(ctx, "p1", mar))
	o, err := s.GetOverride(ctx, "p1", mar)
	require.NoError(t, err)
	assert.Nil(t, o)
	// Idempotent.
	require.NoError(t, s.DeleteOverride(ctx, "p1", mar))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s, ctx := newTestStore(t)
	seedAssignment(t, s, ctx, "a1")
	mar := engine.YM(2025, time.March)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx engine.Store) error {
		if err := tx.PutAllocation(ctx, engine.Allocation{
			ID: "alloc-1", AssignmentID: "a1", Month: mar,
			Hours: 80, Version: 1, UpdatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	cell, err := s.GetAllocation(ctx, "a1", mar)
	require.NoError(t, err)
	assert.Nil(t, cell)
}

func TestWithTxCommits(t *testing.T) {
	s, ctx := newTestStore(t)
	seedAssignment(t, s, ctx, "a1")
	mar := engine.YM(2025, time.March)

	err := s.WithTx(ctx, func(tx engine.Store) error {
		return tx.PutAllocation(ctx, engine.Allocation{
			ID: "alloc-1", AssignmentID: "a1", Month: mar,
			Hours: 80, Version: 1, UpdatedAt: time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	cell, err := s.GetAllocation(ctx, "a1", mar)
	require.NoError(t, err)
	require.NotNil(t, cell)
	assert.Equal(t, 80, cell.Hours)
}

// The ledger's planner runs against SQLite exactly as it does against the
// memory store; this is the end-to-end check that the schema, the tx view,
// and the engine agree.
func TestLedgerAgainstSQLite(t *testing.T) {
	s, ctx := newTestStore(t)
	ledger := engine.NewLedger(s, engine.FlatCalendar{})

	a, err := ledger.CreateAssignment(ctx, "p1", "e1", "role-eng", "lcat-senior", 400)
	require.NoError(t, err)

	written, err := ledger.Distribute(ctx, a.ID,
		engine.YM(2025, time.January), engine.YM(2025, time.April), nil)
	require.NoError(t, err)
	require.Len(t, written, 4)
	assert.Equal(t, 100, written[0].Hours)

	budget, err := ledger.AssignmentBudget(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, budget.RemainingHours)

	// Duplicate staffing is blocked by the schema too.
	_, err = ledger.CreateAssignment(ctx, "p1", "e1", "", "", 100)
	assert.True(t, engine.IsConflict(err))
}
