package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"scanattend/internal/config"
	"scanattend/internal/forward"
	"scanattend/internal/metrics"
	"scanattend/internal/queue"
	"scanattend/internal/sheets"
	"scanattend/internal/store"
)

// Worker drains the redis event queue and appends rows to the sheet. Run it
// alongside the API when QUEUE_BACKEND=redis; with the in-memory backend the
// API forwards events itself and this binary has nothing to consume.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend != "redis" {
		log.Fatalf("worker requires QUEUE_BACKEND=redis, got %q", cfg.QueueBackend)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("warning: redis at %s not reachable yet, will keep polling", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, "scanattend:events")
	dispatcher := forward.NewDispatcher(q, newSink(cfg), metrics.New(), nil)

	log.Println("worker started, waiting for events...")
	if err := dispatcher.Run(ctx); err != nil {
		log.Fatalf("dispatcher failed: %v", err)
	}
	log.Println("worker stopped")
}

func newSink(cfg config.App) forward.Sink {
	if cfg.SheetsSpreadsheetID == "" {
		log.Println("sheets not configured (SHEETS_SPREADSHEET_ID not set), logging event rows instead")
		return forward.LogSink{}
	}
	creds, err := sheets.LoadCredentials(cfg.SheetsCredentialsFile)
	if err != nil {
		log.Printf("sheets credentials unusable, logging event rows instead: %v", err)
		return forward.LogSink{}
	}
	log.Printf("forwarding events to spreadsheet %s", cfg.SheetsSpreadsheetID)
	return sheets.New(cfg.SheetsSpreadsheetID, cfg.SheetsRange, creds)
}
