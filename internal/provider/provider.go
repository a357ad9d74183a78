// Package provider adapts bibliographic back ends to a common search
// contract. Providers taking part in one search share a Round, which batches
// their network traffic into a single concurrent wave.
package provider

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"catalogsearch/internal/entity"
	"catalogsearch/internal/query"
)

// Provider searches one back end. A search calls Configure, then Prepare on
// every provider of the round, then Execute, then Results. Prepare never
// blocks; Execute runs the round's network wave and is a no-op once the
// wave ran. Results never fails: problems are logged and yield no entities.
type Provider interface {
	Configure(cfg Config, q *query.Group) error
	Prepare(r *Round) error
	Execute(ctx context.Context, r *Round) error
	Results() []*entity.Entity
}

type Factory func(log *zap.Logger) Provider

// Registry maps config type tags to provider factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	log       *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{factories: make(map[string]Factory), log: log}
}

// DefaultRegistry knows every built-in adapter.
func DefaultRegistry(log *zap.Logger) *Registry {
	r := NewRegistry(log)
	r.Register("sru", NewSRU)
	r.Register("z3950", NewSRU)
	r.Register("innopac", NewInnopac)
	r.Register("googlebooks", NewGoogleBooks)
	r.Register("openlibrary", NewOpenLibrary)
	return r
}

func (r *Registry) Register(typ string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(typ)] = f
}

// New instantiates a provider for the type tag.
func (r *Registry) New(typ string) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(typ)]
	r.mu.RUnlock()
	if !ok {
		return nil, &Error{Type: typ, Op: "new", Err: ErrUnknownType}
	}
	return f(r.log), nil
}

func (r *Registry) Has(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[strings.ToLower(typ)]
	return ok
}

// Types lists the registered type tags.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// base carries the state every adapter needs after Configure.
type base struct {
	cfg   Config
	query *query.Group
	log   *zap.Logger
	ready bool
}

func newBase(log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{log: log}
}

func (b *base) configure(cfg Config, q *query.Group) {
	cfg.ApplyDefaults()
	b.cfg = cfg
	b.query = q
	b.log = b.log.With(
		zap.String("catalog", cfg.CatalogID),
		zap.String("type", cfg.Type),
		zap.String("url", cfg.URL),
	)
	b.ready = true
}

func (b *base) fail(op string, err error) error {
	return &Error{Catalog: b.cfg.CatalogID, Type: b.cfg.Type, Op: op, Err: err}
}

// flatComparisons returns the top-level comparisons of q on one of fields,
// logging nested groups as unsupported.
func (b *base) flatComparisons(fields ...string) []query.Comparison {
	var out []query.Comparison
	for _, item := range b.query.Operands() {
		c, ok := item.(query.Comparison)
		if !ok {
			b.log.Warn("nested queries are not supported, skipping group")
			continue
		}
		for _, f := range fields {
			if strings.EqualFold(c.Field, f) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
