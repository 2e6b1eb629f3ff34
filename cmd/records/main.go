// @title          Medical Records API
// @version        1.0
// @description    Accounts, patient records, prescriptions and prescription text extraction.
// @BasePath       /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medrecords/records-api/internal/api"
	"github.com/medrecords/records-api/internal/api/handler"
	"github.com/medrecords/records-api/internal/core/ports"
	"github.com/medrecords/records-api/internal/core/service"
	"github.com/medrecords/records-api/internal/infrastructure/blob"
	"github.com/medrecords/records-api/internal/infrastructure/config"
	mongodb "github.com/medrecords/records-api/internal/infrastructure/db/mongo"
	redisdb "github.com/medrecords/records-api/internal/infrastructure/db/redis"
	"github.com/medrecords/records-api/internal/infrastructure/ocr"
	"github.com/medrecords/records-api/internal/infrastructure/queue"
	"github.com/medrecords/records-api/internal/infrastructure/summarizer"
	"github.com/medrecords/records-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "records",
		Short: "Medical records API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the prescription pipeline workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create MongoDB indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := bootstrap(ctx)
			if err != nil {
				return err
			}

			client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			if err := mongodb.EnsureIndexes(ctx, db); err != nil {
				return err
			}
			log.Info().Str("database", cfg.Mongo.Database).Msg("indexes created")
			return nil
		},
	}
}

func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "records-api",
		Env:     cfg.Env,
	})
	return cfg, log, nil
}

func runServer(parent context.Context) error {
	cfg, log, err := bootstrap(parent)
	if err != nil {
		return err
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Env}); err != nil {
			log.Warn().Err(err).Msg("sentry disabled")
		}
		defer sentry.Flush(2 * time.Second)
	}

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(parent, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(parent, db); err != nil {
		return err
	}

	health := map[string]handler.Pinger{
		"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
	}

	var cache ports.ExtractionCache
	rdb, err := redisdb.Connect(parent, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, extraction cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
		cache = redisdb.NewExtractionCache(rdb)
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	accountRepo := mongodb.NewAccountRepository(db)
	recordRepo := mongodb.NewPatientRecordRepository(db)
	prescriptionRepo := mongodb.NewPrescriptionRepository(db)
	eventRepo := mongodb.NewProcessingEventRepository(db)
	blobs := blob.NewGridFSStore(db, blob.DefaultBucket)

	// --- Extraction pipeline ---
	ocrService := service.NewOCRService(ocr.NewClient(cfg.OCR.URL, cfg.OCR.Timeout, log), cache, cfg.OCR.CacheTTL, log)

	var summary ports.Summarizer
	if cfg.Summarizer.URL != "" {
		summary = summarizer.NewClient(cfg.Summarizer.URL, cfg.Summarizer.Timeout)
	} else {
		log.Info().Msg("SUMMARIZER_URL not set, summaries disabled")
	}

	pipeline := service.NewPipelineService(prescriptionRepo, eventRepo, blobs, ocrService, summary, log)
	dispatcher := queue.NewDispatcher(cfg.Pipeline.Workers, pipeline, log)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher.Start(workerCtx)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Extractor:      ocrService,
		Accounts:       service.NewAccountService(accountRepo, prescriptionRepo, blobs, cfg.JWTSecret, cfg.TokenTTL, log),
		PatientRecords: service.NewPatientRecordService(recordRepo, log),
		Prescriptions:  service.NewPrescriptionService(prescriptionRepo, accountRepo, blobs, dispatcher, log),
		Health:         health,
		JWTSecret:      cfg.JWTSecret,
		MaxImageBytes:  cfg.MaxImageBytes,
		Log:            log,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Int("workers", cfg.Pipeline.Workers).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("server stopped")
	return nil
}
