package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"m2tracker/api"
	"m2tracker/config"
	"m2tracker/httputil"
	"m2tracker/logging"
	"m2tracker/market"
	"m2tracker/scheduler"
	"m2tracker/storage"
	"m2tracker/workers"
)

var (
	fetchNow = flag.Bool("fetch", false, "Run one fetch cycle and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("daemon.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting m2tracker...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Tracking %d servers", len(cfg.Servers))
	for _, server := range cfg.Servers {
		log.Printf("  - %s (%d)", server.Name, server.ID)
	}

	store, err := storage.NewStore(cfg.DBPath, cfg.LegacyDualWrite)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	log.Printf("Database: %s", cfg.DBPath)

	clients := httputil.NewClients(cfg.Fetcher.Timeout)
	client := market.NewClient(cfg.StoreURL, cfg.TranslationURL, clients)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(cfg, client, store)

	if *fetchNow {
		log.Println("Running fetch cycle...")
		sched.RunAll(ctx)
		log.Println("Fetch complete!")
		return
	}

	purgeWorker := workers.NewPurgeWorker(store, cfg.RetentionDays)
	sched.SetWorkers(purgeWorker)

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	go purgeWorker.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.SetupRoutes(r.Group("/api"), store, cfg)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	go func() {
		log.Printf("API listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("API shutdown: %v", err)
	}
	log.Println("Goodbye!")
}
