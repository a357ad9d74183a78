package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"catalogsearch/internal/app"
	"catalogsearch/internal/config"
	"catalogsearch/internal/httpx"
	"catalogsearch/internal/platform/logger"
	"catalogsearch/internal/search"
)

const (
	searchTimeout   = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	clientRPS       = 2
	clientBurst     = 5
)

func main() {
	config.LoadEnv()

	log, err := logger.New(logger.Config{
		Environment: os.Getenv("APP_ENV"),
		Level:       os.Getenv("LOG_LEVEL"),
		Service:     "catalogsearch-api",
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(ctx, cfg, log, reg)
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}
	defer a.Close()

	handler := newRouter(ctx, routerDeps{
		searcher: a.Engine,
		ready:    a.Ping,
		reg:      reg,
		log:      log,
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: searchTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("starting server",
		zap.String("addr", cfg.Addr),
		zap.Int("catalogs", len(cfg.Catalogs)),
		zap.Int("external_providers", len(cfg.ExternalProviders)))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("server stopped")
}

type routerDeps struct {
	searcher search.Searcher
	ready    func(ctx context.Context) error
	reg      *prometheus.Registry
	log      *zap.Logger
}

// newRouter registers the API routes under /v1 plus probes and metrics.
// ctx bounds the rate limiter janitor.
func newRouter(ctx context.Context, d routerDeps) http.Handler {
	if d.log == nil {
		d.log = zap.NewNop()
	}
	searchHandler := search.NewHTTPHandler(d.searcher, d.log.Named("http"))
	instrument := httpx.MetricsMiddleware(d.reg)
	limiter := httpx.NewRateLimitMiddleware(ctx, clientRPS, clientBurst)

	router := http.NewServeMux()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := d.ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("/metrics", promhttp.HandlerFor(d.reg, promhttp.HandlerOpts{}))

	router.Handle("/v1/search", instrument("search", limiter.Middleware(withDeadline(http.HandlerFunc(searchHandler.Search)))))
	router.Handle("/v1/query", instrument("query", http.HandlerFunc(searchHandler.Query)))

	return httpx.Chain(router,
		httpx.RecoveryMiddleware(d.log),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(d.log.Named("access")),
		httpx.SecurityHeadersMiddleware,
		httpx.CORSMiddleware([]string{"*"}),
	)
}

// withDeadline bounds the search so slow catalogs end in a 504 instead of a
// dropped connection.
func withDeadline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
