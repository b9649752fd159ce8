package main

import (
	"context"
	"database/sql"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"restomap/internal/adapters/google"
	"restomap/internal/adapters/observability"
	redisad "restomap/internal/adapters/redis"
	"restomap/internal/app"
	"restomap/internal/domain"
	"restomap/internal/shared"
	mysqlrepo "restomap/internal/storage/mysql"
)

// fresh is how old a stored search may be before its route is searched again.
const fresh = 24 * time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.GoogleBase).
		Int("workers", cfg.Workers).
		Int("routes", len(cfg.Routes)).
		Msg("prefetch starting")
	if len(cfg.Routes) == 0 {
		log.Warn().Msg("PREFETCH_ROUTES is empty, nothing to do")
		return
	}

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
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	client, err := google.New(cfg.GoogleBase, cfg.GoogleKey, cfg.GoogleRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Google client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	// route-level parallelism comes from the semaphore below
	svc := app.NewSearchService(client, repo, cache, cfg.SearchRadiusM, 2, cfg.CacheTTL)

	sem := semaphore.NewWeighted(int64(max(cfg.Workers, 1)))
	var wg sync.WaitGroup

	for _, rt := range cfg.Routes {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("prefetch interrupted")
			break
		}

		wg.Add(1)
		go func(rt shared.Route) {
			defer wg.Done()
			defer sem.Release(1)

			l := log.With().Str("origin", rt.Origin).Str("destination", rt.Destination).Logger()
			last, err := repo.LatestForRoute(ctx, rt.Origin, rt.Destination)
			switch {
			case err == nil && time.Since(last.CreatedAt) < fresh:
				l.Info().Str("search", last.ID).Msg("route is fresh, skipped")
				return
			case err != nil && !errors.Is(err, domain.ErrNotFound):
				l.Warn().Err(err).Msg("lookup failed, searching anyway")
			}

			s, err := svc.Search(ctx, rt.Origin, rt.Destination)
			if err != nil {
				l.Warn().Err(err).Msg("prefetch failed")
				return
			}
			l.Info().Str("search", s.ID).Msg("prefetch ok")
		}(rt)
	}

	wg.Wait()
	log.Info().Msg("prefetch completed")
}
