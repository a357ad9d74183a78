// Package app wires the search engine and its collaborators from a loaded
// configuration. The API server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"catalogsearch/internal/cache"
	"catalogsearch/internal/config"
	"catalogsearch/internal/knowledge"
	"catalogsearch/internal/platform/fetch"
	"catalogsearch/internal/provider"
	"catalogsearch/internal/search"
)

const (
	dbPingTimeout = 2 * time.Second
	dbTimeout     = 5 * time.Second
)

// App holds the long-lived resources of a process.
type App struct {
	Config *config.Config
	Engine *search.Engine
	DB     *pgxpool.Pool
	Repo   cache.Repository

	pool *ants.Pool
	log  *zap.Logger
}

// New builds the engine. With a database DSN results are cached in Postgres,
// otherwise in memory for the life of the process. reg may be nil.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*App, error) {
	if cfg == nil {
		return nil, search.ErrConfigRequired
	}
	if log == nil {
		log = zap.NewNop()
	}

	pool, err := fetch.NewPool(cfg.HTTP.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	a := &App{Config: cfg, pool: pool, log: log}

	if cfg.DatabaseDSN != "" {
		db, err := openDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			pool.Release()
			return nil, err
		}
		a.DB = db
		a.Repo = cache.NewPostgresRepo(db, dbTimeout)
		log.Info("database connection OK", zap.String("dsn", RedactDSN(cfg.DatabaseDSN)))
	} else {
		a.Repo = cache.NewMemoryRepo()
		log.Info("no database configured, caching in memory")
	}

	resolver, err := cache.NewResolver(a.Repo, cache.WithLogger(log.Named("cache")))
	if err != nil {
		a.Close()
		return nil, err
	}

	client := fetch.NewClient(
		fetch.WithUserAgent(cfg.HTTP.UserAgent),
		fetch.WithRateLimit(cfg.HTTP.RPS),
		fetch.WithMaxRetries(cfg.HTTP.MaxRetries),
		fetch.WithLogger(log.Named("fetch")),
	)
	kb, err := knowledge.New(client, pool, cfg.Wikidata, knowledge.WithLogger(log.Named("wikidata")))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Engine, err = search.New(cfg, pool,
		search.WithLogger(log.Named("search")),
		search.WithClient(client),
		search.WithRegistry(provider.DefaultRegistry(log.Named("provider"))),
		search.WithKnowledgeBase(kb),
		search.WithCache(resolver),
		search.WithMetrics(provider.NewMetrics(reg)),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Ping reports whether the cache backend is reachable.
func (a *App) Ping(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Ping(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	a.pool.Release()
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database (%s): %w", RedactDSN(dsn), err)
	}
	return db, nil
}

// RedactDSN hides the credentials of a connection URL.
func RedactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
