/*
scanner.go - Scheduled cross-project conflict scans

PURPOSE:
  Runs the over-allocation report on a cron schedule and caches the
  latest result so dashboards get an instant answer instead of a full
  roster scan per request. The scan window is the current month plus the
  next two.

SEE ALSO:
  - handlers.go: LatestConflicts serves the cached report
  - engine/portfolio.go: the underlying report
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/warp/staffing-engine/engine"
)

// ConflictScanner periodically recomputes the over-allocation report.
type ConflictScanner struct {
	store     engine.Store
	portfolio *engine.Portfolio
	log       zerolog.Logger

	cron *cron.Cron

	mu     sync.RWMutex
	latest *ConflictReportDTO
}

func NewConflictScanner(store engine.Store, portfolio *engine.Portfolio, log zerolog.Logger) *ConflictScanner {
	return &ConflictScanner{
		store:     store,
		portfolio: portfolio,
		log:       log,
	}
}

// Start schedules scans per the cron spec ("@hourly", "*/15 * * * *", ...)
// and runs one scan immediately so the cache is warm.
func (s *ConflictScanner) Start(spec string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() { s.Scan(context.Background()) })
	if err != nil {
		return err
	}
	s.cron.Start()
	go s.Scan(context.Background())
	return nil
}

// Stop halts the schedule; a scan in flight finishes.
func (s *ConflictScanner) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Latest returns the most recent scan result, nil before the first scan.
func (s *ConflictScanner) Latest() *ConflictReportDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Scan recomputes the report now and caches it.
func (s *ConflictScanner) Scan(ctx context.Context) {
	from := engine.CurrentMonth()
	to := from.Add(2)

	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("conflict scan: list employees")
		return
	}
	roster := make([]engine.EmployeeID, 0, len(employees))
	for _, e := range employees {
		if e.Active {
			roster = append(roster, e.ID)
		}
	}

	entries, err := s.portfolio.OverAllocated(ctx, roster, from, to)
	if err != nil {
		s.log.Error().Err(err).Msg("conflict scan failed")
		return
	}

	report := &ConflictReportDTO{
		ScannedAt:     time.Now().UTC().Format(time.RFC3339),
		FromMonth:     from.String(),
		ToMonth:       to.String(),
		OverAllocated: toOverAllocationDTOs(entries),
	}

	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()

	s.log.Info().
		Int("employees", len(roster)).
		Int("over_allocated", len(entries)).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("conflict scan complete")
}
