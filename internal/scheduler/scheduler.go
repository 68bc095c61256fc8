// Package scheduler wires up the cron job that periodically sweeps
// processed suggestions past their retention window.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"refzone/assignment-service/internal/metrics"
)

// Sweeper deletes processed suggestions older than the retention window.
type Sweeper interface {
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler wraps robfig/cron and manages the retention sweep loop.
type Scheduler struct {
	cron      *cron.Cron
	sweeper   Sweeper
	retention time.Duration
	spec      string // cron spec, e.g. "@every 24h"
}

// New creates a Scheduler that sweeps every intervalHours hours, removing
// suggestions processed more than retentionDays ago.
func New(sweeper Sweeper, retentionDays, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cron.DefaultLogger)),
		sweeper:   sweeper,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		spec:      fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so retention is enforced without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started with spec %s, retention %s", s.spec, s.retention)

	// Run immediately on startup (non-blocking)
	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// runSweep executes one retention sweep.
func (s *Scheduler) runSweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.sweeper.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("[scheduler] Retention sweep error: %v", err)
		return
	}
	if deleted > 0 {
		metrics.SuggestionsSwept.Add(float64(deleted))
	}
	log.Printf("[scheduler] Retention sweep complete, removed %d processed suggestion(s)", deleted)
}
