// Package main provides the entrypoint for the ingestion worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
	"github.com/asthmaguardian/asthmaguardian/internal/airquality/bom"
	"github.com/asthmaguardian/asthmaguardian/internal/airquality/nswgov"
	"github.com/asthmaguardian/asthmaguardian/internal/database"
	"github.com/asthmaguardian/asthmaguardian/internal/ingest"
	"github.com/asthmaguardian/asthmaguardian/internal/provider/resilience"
	"github.com/asthmaguardian/asthmaguardian/internal/store"
	"github.com/asthmaguardian/asthmaguardian/internal/telemetry"
	"github.com/asthmaguardian/asthmaguardian/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "asthmaguardian-worker"

	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting ingestion worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	readings := store.NewPostgres(pool)
	if err := readings.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Provider stack: NSW government primary, BOM fallback, both behind
	// circuit breakers tracked by one registry.
	providers := resilience.NewRegistry()
	primary := nswgov.NewClient(nswgov.ClientConfig{
		BaseURL:  os.Getenv("NSW_API_BASE_URL"),
		Registry: providers,
		Logger:   log,
	})
	fallback := bom.NewClient(bom.ClientConfig{
		BaseURL:  os.Getenv("BOM_API_BASE_URL"),
		Registry: providers,
		Logger:   log,
	})
	fetcher := airquality.NewFetcher(log, primary, fallback)

	runner := ingest.NewRunner(ingest.NewRegistry(), fetcher, readings, log, runnerConfigFromEnv())

	// Retention sweeps replace the managed TTL we would get from a
	// document store.
	cleaner := store.NewCleaner(readings, envDuration("CLEANER_INTERVAL", time.Hour), log)
	go cleaner.Run(ctx)

	// Trigger: a Pub/Sub subscription when configured, an in-process
	// schedule otherwise.
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			Runner:           runner,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
				cancel()
			}
		}()
	} else {
		schedule := worker.NewSchedule(runner, envDuration("INGEST_INTERVAL", time.Hour), log)
		if err := schedule.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start schedule")
		}
		defer schedule.Stop()
		log.Info().Msg("no pubsub subscription configured, using in-process schedule")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		go func() {
			if _, err := runner.Run(ctx, nil); err != nil {
				log.Error().Err(err).Msg("startup ingestion run failed")
			}
		}()
	}

	// Health endpoint for the container platform.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func runnerConfigFromEnv() ingest.RunnerConfig {
	cfg := ingest.DefaultRunnerConfig()
	if v := os.Getenv("INGEST_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}
	cfg.RunTimeout = envDuration("INGEST_RUN_TIMEOUT", cfg.RunTimeout)
	return cfg
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
