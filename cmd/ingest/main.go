// Package main provides the entrypoint for the wxdb station metadata
// ingest worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wxdb/wxdb/internal/database"
	"github.com/wxdb/wxdb/internal/station"
	"github.com/wxdb/wxdb/internal/station/cdec"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "wxdb-ingest"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting wxdb ingest")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	client := cdec.NewClient(cdec.ClientConfig{
		BaseURL: os.Getenv("CDEC_BASE_URL"),
	})

	concurrency, _ := strconv.Atoi(os.Getenv("SYNC_CONCURRENCY"))

	timezone := os.Getenv("SYNC_TIMEZONE")
	if timezone == "" {
		// The source reports no timezones; PDT is the operational default
		// for California stations and can be overridden per deployment.
		timezone = "PDT"
	}
	log.Info().Str("timezone", timezone).Msg("timezone tag for this deployment")

	service := station.NewService(station.Config{
		Provider:    client,
		Repository:  station.NewPostgresRepository(pool),
		Logger:      log,
		Concurrency: concurrency,
		Mode:        station.Mode(os.Getenv("SYNC_MODE")),
		Timezone:    timezone,
	})

	interval, _ := time.ParseDuration(os.Getenv("SYNC_INTERVAL"))
	if interval <= 0 {
		// One-shot run.
		if _, err := service.SyncMetadata(ctx); err != nil {
			log.Fatal().Err(err).Msg("metadata sync failed")
		}
		return
	}

	// Interval mode: keep a health endpoint up for the runtime platform
	// and sync on a ticker until signalled.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	router := chi.NewRouter()
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","version":"` + Version + `"}`))
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	go func() {
		runSync := func() {
			if _, err := service.SyncMetadata(ctx); err != nil {
				log.Error().Err(err).Msg("metadata sync failed")
			}
		}

		runSync()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runSync()
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down ingest worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}
}
