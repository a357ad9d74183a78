package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalogsearch/internal/entity"
)

// Resolver assigns persistence identity to merged search results.
type Resolver struct {
	repo  Repository
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*Resolver)

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func NewResolver(repo Repository, opts ...Option) (*Resolver, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	r := &Resolver{
		repo:  repo,
		log:   zap.NewNop(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Persist resolves entities and their directly related entities against the
// repository and commits them in one call. Entities matching stored records
// take the ID and creation date of the oldest match and absorb the
// identifiers of every match; the rest get a new ID.
func (r *Resolver) Persist(ctx context.Context, entities []*entity.Entity) error {
	queue := persistQueue(entities)
	if len(queue) == 0 {
		return nil
	}

	reused := 0
	for _, e := range queue {
		e.UpdateSlug()

		var (
			records []Record
			err     error
		)
		if len(e.Identifiers) == 0 {
			records, err = r.repo.FindBySlug(ctx, e.Kind, e.Slug)
		} else {
			keys := make([]string, 0, len(e.Identifiers))
			for _, id := range e.Identifiers {
				keys = append(keys, id.Key())
			}
			records, err = r.repo.FindByIdentifiers(ctx, keys)
		}
		if err != nil {
			return fmt.Errorf("resolve %s %q: %w", e.Kind, e.Slug, err)
		}

		if len(records) == 0 {
			if e.ID == "" {
				e.ID = r.newID()
			}
			if e.CreatedAt.IsZero() {
				e.CreatedAt = r.now()
			}
			continue
		}

		reused++
		e.ID = records[0].ID
		e.CreatedAt = records[0].CreatedAt
		for _, rec := range records {
			for _, id := range rec.Identifiers {
				e.AddIdentifier(id.Type, id.Value)
			}
		}
	}

	if err := r.repo.Commit(ctx, queue); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug("persisted entities", zap.Int("total", len(queue)), zap.Int("reused", reused))
	return nil
}

// persistQueue returns entities followed by their directly related entities,
// each once.
func persistQueue(entities []*entity.Entity) []*entity.Entity {
	seen := make(map[*entity.Entity]bool)
	var queue []*entity.Entity
	add := func(e *entity.Entity) {
		if e != nil && !seen[e] {
			seen[e] = true
			queue = append(queue, e)
		}
	}
	for _, e := range entities {
		if e == nil {
			continue
		}
		add(e)
		for _, rel := range e.Relations {
			add(entity.Other(rel, e))
		}
	}
	return queue
}
