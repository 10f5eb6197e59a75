/*
seed.go - Demo data for local development

PURPOSE:
  Populates an empty database with a small staffing picture so the grid,
  reports, and burn-down charts have something to show: three projects,
  four employees, and allocations that include one over-allocated month
  and one bench employee.

  Only runs when the database has no employees; a second startup with
  DEV_MODE=true leaves existing data alone.
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/staffing-engine/engine"
)

// Seed loads demo data into an empty store. No-op when employees exist.
func Seed(ctx context.Context, store engine.TxStore, calendar engine.Calendar, log zerolog.Logger) error {
	existing, err := store.ListEmployees(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Debug().Msg("seed skipped: store is not empty")
		return nil
	}

	now := engine.CurrentMonth()
	start := now.FirstDay()

	projects := []engine.Project{
		{ID: "proj-atlas", Code: "ATLAS", Name: "Atlas Migration", Client: "Meridian Corp",
			StartDate: start, Sprints: 12, Status: engine.StatusActive},
		{ID: "proj-borealis", Code: "BOREALIS", Name: "Borealis Platform", Client: "Northwind",
			StartDate: start, Sprints: 8, Status: engine.StatusActive},
		{ID: "proj-cascade", Code: "CASCADE", Name: "Cascade Rewrite", Client: "Meridian Corp",
			StartDate: start.AddDate(0, 1, 0), Sprints: 6, Status: engine.StatusPlanning},
	}
	for _, p := range projects {
		if err := store.SaveProject(ctx, p); err != nil {
			return fmt.Errorf("seed project %s: %w", p.Code, err)
		}
	}

	employees := []engine.Employee{
		{ID: "emp-ana", Email: "ana@example.com", Name: "Ana Flores", Active: true},
		{ID: "emp-bo", Email: "bo@example.com", Name: "Bo Lindqvist", Active: true},
		{ID: "emp-chidi", Email: "chidi@example.com", Name: "Chidi Okafor", Active: true},
		{ID: "emp-dara", Email: "dara@example.com", Name: "Dara Levin", Active: true},
	}
	for _, e := range employees {
		if err := store.SaveEmployee(ctx, e); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.Email, err)
		}
	}

	ledger := engine.NewLedger(store, calendar)

	type staffing struct {
		project  engine.ProjectID
		employee engine.EmployeeID
		role     string
		lcat     string
		funded   int
		hours    []int // per month starting at the current month
	}
	plan := []staffing{
		// Ana is over-allocated next month: 100 + 80 on a 160h baseline.
		{"proj-atlas", "emp-ana", "role-eng", "lcat-senior", 600, []int{80, 100, 80}},
		{"proj-borealis", "emp-ana", "role-eng", "lcat-senior", 400, []int{40, 80, 40}},
		{"proj-atlas", "emp-bo", "role-eng", "lcat-mid", 480, []int{160, 160, 160}},
		{"proj-borealis", "emp-chidi", "role-pm", "lcat-senior", 500, []int{120, 120, 120}},
		// Dara is on the bench: 24h in the current month.
		{"proj-cascade", "emp-dara", "role-design", "lcat-mid", 300, []int{24, 0, 0}},
	}
	for _, s := range plan {
		a, err := ledger.CreateAssignment(ctx, s.project, s.employee, s.role, s.lcat, s.funded)
		if err != nil {
			return fmt.Errorf("seed assignment %s/%s: %w", s.project, s.employee, err)
		}
		ym := now
		for _, hours := range s.hours {
			if hours > 0 {
				if _, err := ledger.UpsertAllocation(ctx, a.ID, ym, hours, engine.VersionAny); err != nil {
					return fmt.Errorf("seed allocation %s %s: %w", a.ID, ym, err)
				}
			}
			ym = ym.Next()
		}
	}

	// A crunch month on Atlas: 176h capacity instead of the baseline.
	if _, err := ledger.SetOverride(ctx, "proj-atlas", now.Add(1), 176); err != nil {
		return fmt.Errorf("seed override: %w", err)
	}

	log.Info().
		Int("projects", len(projects)).
		Int("employees", len(employees)).
		Int("assignments", len(plan)).
		Time("seeded_at", time.Now().UTC()).
		Msg("demo data seeded")
	return nil
}
