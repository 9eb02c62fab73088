package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/excommunicades/starnavi/internal/analytics"
	"github.com/excommunicades/starnavi/internal/auth"
	"github.com/excommunicades/starnavi/internal/autoreply"
	"github.com/excommunicades/starnavi/internal/config"
	"github.com/excommunicades/starnavi/internal/database"
	"github.com/excommunicades/starnavi/internal/database/sqlitestore"
	"github.com/excommunicades/starnavi/internal/handlers"
	"github.com/excommunicades/starnavi/internal/metrics"
	"github.com/excommunicades/starnavi/internal/moderation"
	"github.com/excommunicades/starnavi/internal/routing"
	"github.com/excommunicades/starnavi/internal/tracing"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Configure zerolog
	// Set log level from environment (default: info)
	logLevel := os.Getenv("LOG_LEVEL")
	switch logLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Use pretty console logging in development, JSON in production
	if os.Getenv("LOG_FORMAT") == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	log.Info().Msg("Starting Starnavi")

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing is best effort; the exporter batches in the background and
	// drops spans if no collector is listening
	tp, err := tracing.Init(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without it")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	store, err := sqlitestore.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	defer store.Close()
	log.Info().Str("path", cfg.DBPath).Msg("Database opened")

	journal, err := autoreply.OpenJournal(autoreply.JournalOptions{Path: cfg.JournalPath})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.JournalPath).Msg("Failed to open reply journal")
	}
	defer journal.Close()

	gate, err := moderation.NewGateWithOptions(moderation.Options{
		WordlistPath: cfg.WordlistPath,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build moderation gate")
	}

	if cfg.JWTSecret == "dev-jwt-secret" {
		log.Warn().Msg("Using the development JWT secret, set STARNAVI_JWT_SECRET in production")
	}
	authSvc := auth.NewService(store, cfg.JWTSecret, auth.WithTokenTTL(cfg.TokenTTL))

	scheduler := autoreply.New(store, journal, gate, autoreply.Options{
		ModerateReplies: cfg.ModerateReplies,
		StoreTimeout:    cfg.StoreTimeout,
	})
	scheduler.Start(ctx)
	defer scheduler.Stop()

	analyticsSvc := analytics.NewService(store)
	analyticsSvc.MaxRangeDays = cfg.MaxRangeDays

	stat := func(pick func(database.Stats) int) func() int {
		return func() int {
			st, err := store.GetStats(context.Background())
			if err != nil {
				log.Warn().Err(err).Msg("Failed to collect store stats")
				return 0
			}
			return pick(st)
		}
	}
	metrics.StartCollector(ctx, metrics.StatsSource{
		UserCount:      stat(func(st database.Stats) int { return st.Users }),
		PostCount:      stat(func(st database.Stats) int { return st.Posts }),
		CommentCount:   stat(func(st database.Stats) int { return st.Comments }),
		PendingReplies: scheduler.PendingCount,
	}, cfg.MetricsInterval)

	h := handlers.NewHandler(store, authSvc, gate, scheduler, analyticsSvc)

	handler := routing.SetupRouter(routing.Config{
		Handlers: h,
		Auth:     authSvc,
		Logger:   log.Logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
