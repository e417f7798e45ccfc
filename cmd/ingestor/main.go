package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"reviews_dashboard/internal/adapters/feed"
	"reviews_dashboard/internal/adapters/observability"
	"reviews_dashboard/internal/app"
	"reviews_dashboard/internal/shared"
	mysqlrepo "reviews_dashboard/internal/storage/mysql"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env")
	}
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	observability.Serve(cfg.MetricsAddr)

	log.Info().
		Str("source", cfg.SourceURL).
		Int("workers", cfg.Workers).
		Int("batch", cfg.BatchSize).
		Str("schedule", cfg.IngestSchedule).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	client, err := feed.New(cfg.SourceURL, cfg.FetchRPS, cfg.FetchTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize feed client")
	}
	mode, err := app.ParseModeOf(cfg.ParseMode)
	if err != nil {
		log.Fatal().Err(err).Msg("PARSE_MODE")
	}
	src := app.NewFeedSource(client, mode, observability.ObserveSkippedRows)
	ing := app.NewIngestionService(src, mysqlrepo.New(db), cfg.BatchSize, cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		start := time.Now()
		n, err := ing.Ingest(ctx)
		observability.ObserveIngested(n)
		if err != nil {
			log.Error().Err(err).Int("rows", n).Msg("ingestion failed")
			return
		}
		log.Info().Int("rows", n).Dur("took", time.Since(start)).Msg("ingestion completed")
	}

	if cfg.IngestSchedule == "" {
		run()
		return
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(cfg.IngestSchedule, run); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.IngestSchedule).Msg("bad INGEST_SCHEDULE")
	}
	c.Start()
	log.Info().Str("schedule", cfg.IngestSchedule).Msg("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("scheduler stopped")
}
