package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"restomap/internal/adapters/google"
	server "restomap/internal/adapters/http_server"
	"restomap/internal/adapters/ipgeo"
	"restomap/internal/adapters/observability"
	redisad "restomap/internal/adapters/redis"
	"restomap/internal/app"
	"restomap/internal/domain"
	"restomap/internal/shared"
	mysqlrepo "restomap/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	if err := mysqlrepo.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable, reads fall through to MySQL")
	}

	var maps domain.MapsClient
	if gc, err := google.New(cfg.GoogleBase, cfg.GoogleKey, cfg.GoogleRPS); err != nil {
		log.Warn().Err(err).Msg("google client disabled")
	} else {
		maps = gc
	}
	svc := app.NewSearchService(maps, repo, cache, cfg.SearchRadiusM, cfg.Workers, cfg.CacheTTL)

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	h := &server.Handlers{
		Searches:   svc,
		Sessions:   app.NewSessions(cfg.SessionTTL),
		Locator:    ipgeo.New(ipgeo.WithURL(cfg.IPGeoURL)),
		MapEnabled: cfg.MapEnabled,
		Position:   domain.DefaultPositionOptions(),
	}
	srv.MountHandlers(h)
	srv.MountPages(h)

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
