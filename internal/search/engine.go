// Package search federates a query over the configured catalogs, enriches
// the results through external providers and merges records describing the
// same thing.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"catalogsearch/internal/config"
	"catalogsearch/internal/entity"
	"catalogsearch/internal/linkage"
	"catalogsearch/internal/platform/fetch"
	"catalogsearch/internal/provider"
	"catalogsearch/internal/query"
)

var ErrConfigRequired = errors.New("search config required")

// Round stages reported to metrics.
const (
	StageLocal    = "local"
	StageExternal = "external"
	StageMerge    = "merge"
	StageEnrich   = "enrich"
	StagePersist  = "persist"
)

// KnowledgeBase fills related entities with data from a public knowledge
// base. Misses are silent.
type KnowledgeBase interface {
	FillEntities(ctx context.Context, entities []*entity.Entity) error
}

// Persister gives merged results a stable identity.
type Persister interface {
	Persist(ctx context.Context, entities []*entity.Entity) error
}

type Engine struct {
	cfg      *config.Config
	pool     *ants.Pool
	client   *fetch.Client
	registry *provider.Registry
	kb       KnowledgeBase
	cache    Persister
	metrics  *provider.Metrics
	log      *zap.Logger
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithClient(c *fetch.Client) Option {
	return func(e *Engine) { e.client = c }
}

func WithRegistry(r *provider.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

func WithKnowledgeBase(kb KnowledgeBase) Option {
	return func(e *Engine) { e.kb = kb }
}

func WithCache(p Persister) Option {
	return func(e *Engine) { e.cache = p }
}

func WithMetrics(m *provider.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(cfg *config.Config, pool *ants.Pool, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if pool == nil {
		return nil, fetch.ErrPoolRequired
	}
	e := &Engine{cfg: cfg, pool: pool, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = fetch.NewClient(fetch.WithLogger(e.log))
	}
	if e.registry == nil {
		e.registry = provider.DefaultRegistry(e.log)
	}
	return e, nil
}

// Search runs q on the catalogs in catalogIDs, or on every catalog when
// empty, and returns the merged results in discovery order. Provider, knowledge
// base and cache failures are logged; only cancellation of ctx is returned.
func (e *Engine) Search(ctx context.Context, q *query.Group, catalogIDs []string) ([]*entity.Entity, error) {
	if q == nil || q.Len() == 0 {
		return nil, nil
	}
	log := e.log.With(zap.Stringer("query", q))

	results := e.runRound(ctx, StageLocal, e.cfg.LocalProviders(catalogIDs), q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if eq := EnrichmentQuery(results); eq != nil && len(e.cfg.ExternalProviders) > 0 {
		results = append(results, e.runRound(ctx, StageExternal, e.cfg.ExternalProviders, eq)...)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	found := len(results)
	results = linkage.Fold(linkage.Group(results))
	e.metrics.ObserveStage(StageMerge, time.Since(start))

	if err := e.addMissingEntities(ctx, results); err != nil {
		return nil, err
	}

	if e.cache != nil {
		start := time.Now()
		if err := e.cache.Persist(ctx, results); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn("failed to persist results", zap.Error(err))
		}
		e.metrics.ObserveStage(StagePersist, time.Since(start))
	}

	log.Info("search finished", zap.Int("records", found), zap.Int("results", len(results)))
	return results, nil
}

// addMissingEntities deduplicates related entities and fills the ones the
// knowledge base may know about. New identifiers can reveal more duplicates,
// so related entities are merged again afterwards.
func (e *Engine) addMissingEntities(ctx context.Context, results []*entity.Entity) error {
	linkage.MergeRelated(results)
	if e.kb == nil {
		return nil
	}

	var missing []*entity.Entity
	for _, rel := range linkage.Related(results) {
		if !rel.HasIdentifier(entity.Wikidata) {
			missing = append(missing, rel)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	start := time.Now()
	if err := e.kb.FillEntities(ctx, missing); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.log.Warn("knowledge base enrichment failed", zap.Error(err))
	}
	e.metrics.ObserveStage(StageEnrich, time.Since(start))

	linkage.MergeRelated(results)
	return nil
}

// EnrichmentQuery ORs every searchable identifier of results, once per
// identifier. ISBN-13s are left out since the ISBN-10 of the same record is
// already there. It returns nil when there is nothing to search.
func EnrichmentQuery(results []*entity.Entity) *query.Group {
	seen := make(map[string]bool)
	var ops []query.Expr
	for _, r := range results {
		for _, id := range r.Identifiers {
			if !id.Links() {
				continue
			}
			field, ok := id.QueryField()
			if !ok || seen[id.Key()] {
				continue
			}
			seen[id.Key()] = true
			ops = append(ops, query.Compare(field, query.Equals, id.Value))
		}
	}
	if len(ops) == 0 {
		return nil
	}
	return query.OrOf(ops...)
}

type runningProvider struct {
	cfg    provider.Config
	p      provider.Provider
	failed bool
}

// runRound searches q on every provider in configs within one Round. A
// provider that fails to start or run is logged and contributes nothing.
func (e *Engine) runRound(ctx context.Context, stage string, configs []provider.Config, q *query.Group) []*entity.Entity {
	if len(configs) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { e.metrics.ObserveStage(stage, time.Since(start)) }()

	round, err := provider.NewRound(e.client, e.pool)
	if err != nil {
		e.log.Error("failed to start round", zap.String("stage", stage), zap.Error(err))
		return nil
	}

	var active []*runningProvider
	for _, cfg := range configs {
		log := e.log.With(zap.String("stage", stage), zap.String("catalog", cfg.CatalogID), zap.String("type", cfg.Type))
		p, err := e.registry.New(cfg.Type)
		if err == nil {
			err = p.Configure(cfg, q)
		}
		if err == nil {
			err = p.Prepare(round)
		}
		if err != nil {
			log.Warn("provider skipped", zap.Error(err))
			e.metrics.ObserveRun(cfg.Type, provider.OutcomeError, 0)
			continue
		}
		active = append(active, &runningProvider{cfg: cfg, p: p})
	}

	// Every wave of the round starts together, so the round blocks once for
	// the slowest wave.
	var g errgroup.Group
	for _, a := range active {
		a := a
		g.Go(func() error {
			if err := a.p.Execute(ctx, round); err != nil {
				a.failed = true
				e.log.Warn("provider execution failed",
					zap.String("stage", stage), zap.String("catalog", a.cfg.CatalogID), zap.String("type", a.cfg.Type), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []*entity.Entity
	for _, a := range active {
		res := a.p.Results()
		outcome := provider.OutcomeOK
		switch {
		case len(res) > 0:
		case a.failed:
			outcome = provider.OutcomeError
		default:
			outcome = provider.OutcomeEmpty
		}
		e.metrics.ObserveRun(a.cfg.Type, outcome, len(res))
		out = append(out, res...)
	}
	return out
}
