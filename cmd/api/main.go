package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scanattend/internal/attendance"
	"scanattend/internal/config"
	"scanattend/internal/forward"
	"scanattend/internal/httpapi"
	"scanattend/internal/httpmiddleware"
	"scanattend/internal/metrics"
	"scanattend/internal/notify"
	"scanattend/internal/queue"
	"scanattend/internal/sheets"
	"scanattend/internal/snapshot"
	"scanattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	snapStore, cleanup, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := attendance.NewRegistry(snapStore, m)
	if err := registry.Restore(ctx); err != nil {
		// A corrupt or unreadable snapshot must not keep attendance down.
		log.Printf("snapshot load failed, starting with an empty registry: %v", err)
	} else {
		log.Printf("loaded %d participant records", registry.Len())
	}

	var redisClient *store.Redis
	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		q = queue.NewRedisQueue(redisClient.Client, "scanattend:events")
		log.Println("event forwarding delegated to worker via redis queue")
	} else {
		q = queue.NewInMemory(64)
		// In-memory queue has no external consumer; forward in-process.
		dispatcher := forward.NewDispatcher(q, newSink(cfg), m, nil)
		go func() {
			if err := dispatcher.Run(ctx); err != nil {
				log.Printf("forwarder stopped: %v", err)
			}
		}()
	}

	var sender notify.Sender = notify.LogSender{}
	if cfg.NotifyGatewayURL != "" {
		sender = notify.NewGatewaySender(cfg.NotifyGatewayURL)
	}
	notifier := notify.NewScheduler(sender, cfg.NotifyDelay, m)

	svc := attendance.NewService(registry, forward.NewPublisher(q), notifier, m)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewPerIPLimiter(cfg.RateLimitPerMin, time.Minute).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpapi.New(svc, redisClient).Mount(r)

	r.StaticFile("/", "web/index.html")
	r.Static("/static", "web/static")

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

// newSnapshotStore selects the durability backend. The file store is the
// default; postgres keeps the same whole-snapshot contract in a single row.
func newSnapshotStore(ctx context.Context, cfg config.App) (attendance.Store, func(), error) {
	if cfg.StoreBackend == "postgres" {
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg, err := snapshot.NewPostgresStore(ctx, db.Client)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return pg, func() { _ = db.Close() }, nil
	}

	fs, err := snapshot.NewFileStore(cfg.SnapshotPath)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {}, nil
}

// newSink builds the sheet sink, falling back to log-only when the
// spreadsheet is not configured.
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

// CORS middleware for browser requests from the scanner page.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
