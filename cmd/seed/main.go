package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"catalogsearch/internal/app"
	"catalogsearch/internal/config"
	"catalogsearch/internal/platform/logger"
	"catalogsearch/internal/query"
)

// seed warms the entity cache by running a list of searches, one per line of
// the input file, so that stored identities exist before the API serves them.
func main() {
	var (
		file    = flag.String("queries", "-", "file with one query per line, - for stdin")
		timeout = flag.Duration("timeout", 30*time.Second, "timeout per search")
	)
	flag.Parse()

	config.LoadEnv()
	log, err := logger.New(logger.Config{Environment: os.Getenv("APP_ENV"), Level: os.Getenv("LOG_LEVEL"), Service: "catalogsearch-seed"})
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal("DB_DSN is required to seed the cache")
	}

	var in io.Reader = os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatal("failed to open queries", zap.Error(err))
		}
		defer f.Close()
		in = f
	}
	queries, err := readQueries(in)
	if err != nil {
		log.Fatal("failed to read queries", zap.Error(err))
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}
	defer a.Close()

	log.Info("seeding cache", zap.Int("queries", len(queries)))
	found := 0
	for i, q := range queries {
		searchCtx, cancel := context.WithTimeout(ctx, *timeout)
		results, err := a.Engine.Search(searchCtx, query.Parse(q), nil)
		cancel()
		if err != nil {
			log.Warn("search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		found += len(results)
		if (i+1)%10 == 0 {
			log.Info("progress", zap.Int("done", i+1), zap.Int("total", len(queries)))
		}
	}

	var total int
	if err := a.DB.QueryRow(ctx, "SELECT COUNT(*) FROM entities").Scan(&total); err != nil {
		log.Fatal("failed to count entities", zap.Error(err))
	}
	log.Info("seed finished", zap.Int("results", found), zap.Int("entities_in_cache", total))
}

// readQueries returns the non-blank lines of r. Lines starting with # are
// comments.
func readQueries(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
