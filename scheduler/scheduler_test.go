package scheduler

import (
	"context"
	"testing"

	"m2tracker/config"
)

type triggerRecorder struct {
	calls int
}

func (r *triggerRecorder) Trigger() { r.calls++ }

func TestRunAllTriggersPurgeWorker(t *testing.T) {
	sched := New(&config.Config{}, nil, nil)

	rec := &triggerRecorder{}
	sched.SetWorkers(rec)

	sched.RunAll(context.Background())
	if rec.calls != 1 {
		t.Fatalf("expected purge trigger after cycle, got %d calls", rec.calls)
	}

	sched.RunAll(context.Background())
	if rec.calls != 2 {
		t.Fatalf("expected one trigger per cycle, got %d calls", rec.calls)
	}
}

func TestRunAllWithoutWorkers(t *testing.T) {
	sched := New(&config.Config{}, nil, nil)

	// No registered workers must not panic the cycle.
	sched.RunAll(context.Background())
}
