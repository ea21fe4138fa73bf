package workers

import (
	"context"
	"testing"
	"time"
)

func TestPurgeWorkerDisabled(t *testing.T) {
	w := NewPurgeWorker(nil, 0)

	// Triggers are non-blocking even when nothing consumes them.
	w.Trigger()
	w.Trigger()

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("disabled worker must return without running")
	}
}
