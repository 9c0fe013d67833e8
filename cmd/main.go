package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"negativacao-sync/internal/clients"
	"negativacao-sync/internal/config"
	"negativacao-sync/internal/repository"
	"negativacao-sync/internal/service"
	"negativacao-sync/internal/transport/rest"
	"negativacao-sync/internal/transport/websocket"
	"negativacao-sync/pkg/database/postgres"
	"negativacao-sync/pkg/logger"

	"github.com/joho/godotenv"
)

const (
	cleanupInterval = 5 * time.Minute
	reportRetention = 24 * time.Hour
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log.Logger)

	if envErr != nil {
		log.Info("no .env file found, using system env or defaults")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workflow, err := config.LoadWorkflow(cfg.WorkflowFile)
	if err != nil {
		fatal(log, "workflow config error", err)
	}

	crm, err := clients.NewBitrixClient(cfg.Bitrix.WebhookURL, time.Duration(cfg.Bitrix.Timeout)*time.Second, log)
	if err != nil {
		fatal(log, "bitrix client error", err)
	}

	checks := map[string]rest.HealthCheck{}

	// cache and journal are optional; interface values stay nil when disabled
	var (
		runCache   service.RunCache
		runJournal service.RunJournal
		db         *sql.DB
		redis      *clients.RedisClient
	)

	if cfg.Redis.Enabled() {
		redis, err = clients.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			fatal(log, "redis init error", err)
		}
		runCache = redis
		checks["redis"] = redis.Ping
	}

	if cfg.Postgres.Enabled() {
		db = mustInitPostgres(ctx, log, cfg.Postgres)
		repo := repository.NewRunRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			fatal(log, "postgres schema error", err)
		}
		runJournal = repo
		checks["postgres"] = db.PingContext
	}

	storage, err := clients.NewLocalStorage(cfg.ExportDir, cfg.FilesPublicPrefix, cfg.ExternalURL)
	if err != nil {
		fatal(log, "storage init error", err)
	}

	var publisher service.ReportPublisher = storage
	if cfg.S3.Enabled() {
		s3, err := clients.NewS3Client(cfg.S3)
		if err != nil {
			fatal(log, "s3 init error", err)
		}
		publisher = s3
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	wsClient := clients.NewWebSocketClient(hub)

	runs := service.NewRunService(runCache, runJournal, wsClient, time.Duration(cfg.RunTTLHours)*time.Hour, log)
	reports := service.NewReportService(runs, runCache, publisher, wsClient, log)

	handler := rest.NewHandler(rest.Deps{
		Negativation: service.NewNegativationDispatcher(crm, workflow, log),
		StatusSync:   service.NewStatusSynchronizer(crm, workflow, log),
		Settlement:   service.NewSettlementReconciler(crm, workflow, log),
		Runs:         runs,
		Reports:      reports,
		Files:        storage,
		WebSocket:    hub,
		Checks:       checks,
		Log:          log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.InitRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	go cleanupReports(ctx, log, storage)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			fatal(log, "http server error", err)
		}
	case sig := <-stop:
		log.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown error", "error", err)
		}

		// stops the websocket hub and the cleaner
		cancel()

		if err := postgres.Close(db); err != nil {
			log.Error("postgres close error", "error", err)
		}
		redis.Close()

		log.Info("shutdown complete")
	}
}

func mustInitPostgres(ctx context.Context, log *logger.Logger, cfg config.PostgresConfig) *sql.DB {
	db, err := postgres.NewPostgresConnection(ctx, postgres.ConnectionInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Password: cfg.Password,
	})
	if err != nil {
		fatal(log, "postgres init error", err)
	}
	return db
}

func cleanupReports(ctx context.Context, log *logger.Logger, storage *clients.StorageClient) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := storage.CleanupOlderThan(reportRetention)
			if err != nil {
				log.Warn("storage cleanup error", "error", err)
				continue
			}
			if removed > 0 {
				log.Debug("storage cleanup", "removed", removed)
			}
		}
	}
}

func fatal(log *logger.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
