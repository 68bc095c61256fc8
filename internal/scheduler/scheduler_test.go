package scheduler_test

import (
	"context"
	"testing"
	"time"

	"refzone/assignment-service/internal/scheduler"
)

type fakeSweeper struct {
	calls   chan time.Time // receives the cutoff of each sweep
	deleted int64
	err     error
}

func (f *fakeSweeper) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.calls <- cutoff
	return f.deleted, f.err
}

func TestStartRunsImmediateSweep(t *testing.T) {
	fs := &fakeSweeper{calls: make(chan time.Time, 1), deleted: 3}
	s := scheduler.New(fs, 90, 24)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case cutoff := <-fs.calls:
		wantAround := time.Now().Add(-90 * 24 * time.Hour)
		if diff := cutoff.Sub(wantAround); diff < -time.Minute || diff > time.Minute {
			t.Errorf("cutoff = %v, want about 90 days ago", cutoff)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("startup sweep never ran")
	}
}

func TestStopIsIdempotentAfterStart(t *testing.T) {
	fs := &fakeSweeper{calls: make(chan time.Time, 4)}
	s := scheduler.New(fs, 30, 1)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
	s.Stop()
}
