package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"reviews_dashboard/internal/adapters/feed"
	server "reviews_dashboard/internal/adapters/http_server"
	"reviews_dashboard/internal/adapters/observability"
	redisad "reviews_dashboard/internal/adapters/redis"
	"reviews_dashboard/internal/app"
	"reviews_dashboard/internal/domain"
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

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve(cfg.MetricsAddr)

	src, closeSrc := reviewSource(cfg)
	defer closeSrc()

	// a failed first load is served as an error, not a crash
	data := app.NewDataset(src, observability.ObserveDatasetRows)
	loadCtx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout+5*time.Second)
	if err := data.Load(loadCtx); err != nil {
		log.Error().Err(err).Msg("initial review load failed; serving errors until reload")
	}
	cancel()

	sessions := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := sessions.Ping(context.Background()); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}
	q := app.NewQueryService(data, sessions, cfg.SessionTTL, cfg.TrendBehavior)

	// http
	srv := server.New(cfg.HTTPTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q})

	log.Info().Str("addr", cfg.HTTPAddr).Str("source", cfg.SourceKind).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	ctx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("API stopped")
}

// reviewSource picks the CSV feed or the MySQL snapshot written by the ingestor.
func reviewSource(cfg shared.Config) (domain.ReviewSource, func()) {
	if cfg.SourceKind == shared.SourceMySQL {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		return mysqlrepo.New(db), func() { _ = db.Close() }
	}

	client, err := feed.New(cfg.SourceURL, cfg.FetchRPS, cfg.FetchTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize feed client")
	}
	mode, err := app.ParseModeOf(cfg.ParseMode)
	if err != nil {
		log.Fatal().Err(err).Msg("PARSE_MODE")
	}
	return app.NewFeedSource(client, mode, observability.ObserveSkippedRows), func() {}
}
