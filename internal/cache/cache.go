// Package cache gives search results a stable persistence identity. Linkage
// decides which records describe the same thing; the cache decides which
// stored row a merged entity maps to.
package cache

import (
	"context"
	"errors"
	"time"

	"catalogsearch/internal/entity"
)

var ErrRepositoryRequired = errors.New("cache repository required")

// Record is a stored entity as seen by the resolver.
type Record struct {
	ID          string
	Kind        entity.Kind
	Slug        string
	CreatedAt   time.Time
	Identifiers []entity.Identifier
}

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks catalogsearch/internal/cache Repository

// Repository stores resolved entities. Find methods return records ordered
// by creation, oldest first.
type Repository interface {
	FindBySlug(ctx context.Context, kind entity.Kind, slug string) ([]Record, error)
	FindByIdentifiers(ctx context.Context, keys []string) ([]Record, error)
	Commit(ctx context.Context, entities []*entity.Entity) error
}
