package workers

import (
	"context"
	"log"
	"time"

	"m2tracker/storage"
)

// PurgeWorker trims legacy flat-table rows and stale fetch runs on a
// daily cadence. Disabled when retention is zero.
type PurgeWorker struct {
	store         *storage.Store
	retentionDays int
	triggerCh     chan struct{}
}

func NewPurgeWorker(store *storage.Store, retentionDays int) *PurgeWorker {
	return &PurgeWorker{
		store:         store,
		retentionDays: retentionDays,
		triggerCh:     make(chan struct{}, 1),
	}
}

// Trigger causes the worker to run immediately
func (w *PurgeWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

func (w *PurgeWorker) Run(ctx context.Context) {
	if w.retentionDays <= 0 {
		log.Println("Purge worker disabled (no retention configured)")
		return
	}

	log.Printf("Purge worker started, retention %d days", w.retentionDays)
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	w.purge()
	for {
		select {
		case <-ticker.C:
			w.purge()
		case <-w.triggerCh:
			w.purge()
		case <-ctx.Done():
			return
		}
	}
}

func (w *PurgeWorker) purge() {
	if _, err := w.store.Purge(w.retentionDays); err != nil {
		log.Printf("purge: %v", err)
	}
}
