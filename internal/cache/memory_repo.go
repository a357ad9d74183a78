package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"catalogsearch/internal/entity"
)

type memoryRecord struct {
	Record
	seq int
}

// MemoryRepo keeps resolved entities in process memory. It backs the CLI
// and tests when no database is configured.
type MemoryRepo struct {
	mu      sync.RWMutex
	seq     int
	records map[string]*memoryRecord
	keys    map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		records: make(map[string]*memoryRecord),
		keys:    make(map[string]string),
	}
}

func (r *MemoryRepo) FindBySlug(ctx context.Context, kind entity.Kind, slug string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*memoryRecord
	for _, rec := range r.records {
		if rec.Kind == kind && rec.Slug == slug {
			out = append(out, rec)
		}
	}
	return sorted(out), nil
}

func (r *MemoryRepo) FindByIdentifiers(ctx context.Context, keys []string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []*memoryRecord
	for _, k := range keys {
		id, ok := r.keys[k]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, r.records[id])
	}
	return sorted(out), nil
}

// Commit stores every entity with an ID. An identifier moves to the last
// entity committed with it.
func (r *MemoryRepo) Commit(ctx context.Context, entities []*entity.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entities {
		if e == nil || e.ID == "" {
			continue
		}
		rec, ok := r.records[e.ID]
		if !ok {
			r.seq++
			rec = &memoryRecord{seq: r.seq}
			r.records[e.ID] = rec
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = rec.CreatedAt
		}
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rec.Record = Record{
			ID:          e.ID,
			Kind:        e.Kind,
			Slug:        e.Slug,
			CreatedAt:   createdAt,
			Identifiers: append([]entity.Identifier(nil), e.Identifiers...),
		}
		for _, id := range e.Identifiers {
			r.keys[id.Key()] = e.ID
		}
	}
	return nil
}

// Len returns the number of stored entities.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func sorted(recs []*memoryRecord) []Record {
	if len(recs) == 0 {
		return nil
	}
	slices.SortFunc(recs, func(a, b *memoryRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.seq - b.seq
	})
	out := make([]Record, len(recs))
	for i, rec := range recs {
		out[i] = rec.Record
		out[i].Identifiers = append([]entity.Identifier(nil), rec.Identifiers...)
	}
	return out
}
