package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"m2tracker/config"
	"m2tracker/market"
	"m2tracker/models"
	"m2tracker/storage"
)

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

// Scheduler drives the fetch+ingest cycle for all configured servers,
// either on a cron expression or a fixed interval.
type Scheduler struct {
	cfg    *config.Config
	client *market.Client
	store  *storage.Store
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}

	purgeWorker Triggerable
}

func New(cfg *config.Config, client *market.Client, store *storage.Store) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		client: client,
		store:  store,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Fetcher.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Fetcher.Cron)
		_, err := s.cron.AddFunc(s.cfg.Fetcher.Cron, func() {
			s.RunAll(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
		return nil
	}

	if s.cfg.Fetcher.Interval <= 0 {
		log.Println("No schedule configured, serving stored data only")
		return nil
	}

	log.Printf("Starting scheduler with interval: %s", s.cfg.Fetcher.Interval)
	s.ticker = time.NewTicker(s.cfg.Fetcher.Interval)
	go func() {
		// Fetch immediately so a fresh daemon has data before the first tick.
		s.RunAll(ctx)
		for {
			select {
			case <-s.ticker.C:
				s.RunAll(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

// SetWorkers registers background workers for post-cycle triggering
func (s *Scheduler) SetWorkers(purge Triggerable) {
	s.purgeWorker = purge
}

// RunAll fetches every configured server sequentially. One server
// failing never blocks the rest of the cycle.
func (s *Scheduler) RunAll(ctx context.Context) {
	for _, server := range s.cfg.Servers {
		if ctx.Err() != nil {
			return
		}
		if err := s.runServer(ctx, server); err != nil {
			log.Printf("scheduler: server %d (%s): %v", server.ID, server.Name, err)
		}
	}
	if s.purgeWorker != nil {
		s.purgeWorker.Trigger()
	}
}

func (s *Scheduler) runServer(ctx context.Context, server config.ServerConfig) error {
	run := &models.FetchRun{
		ID:        uuid.New(),
		ServerID:  server.ID,
		StartedAt: time.Now().UTC(),
		Status:    models.RunStatusRunning,
	}
	if err := s.store.CreateRun(run); err != nil {
		log.Printf("scheduler: record run start: %v", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Fetcher.Timeout)
	defer cancel()

	listings, err := s.client.FetchListings(fetchCtx, server.ID)
	if err != nil {
		s.finishRun(run, models.RunStatusFailed, err)
		return err
	}
	run.ListingsFound = len(listings)

	persisted, err := s.store.Ingest(server.ID, listings)
	if err != nil {
		s.finishRun(run, models.RunStatusFailed, err)
		return err
	}
	run.OffersPersisted = persisted

	s.finishRun(run, models.RunStatusCompleted, nil)
	return nil
}

func (s *Scheduler) finishRun(run *models.FetchRun, status string, cause error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = status
	if cause != nil {
		run.Error = cause.Error()
	}
	if err := s.store.FinishRun(run); err != nil {
		log.Printf("scheduler: record run finish: %v", err)
	}
}
