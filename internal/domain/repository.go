package domain

import (
	"context"
	"time"
)

// CatalogRepository reads the canonical product catalog.
// The matcher needs read access only.
type CatalogRepository interface {
	ListActive(ctx context.Context) ([]CatalogEntry, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (*MatchResult, error)
	Set(ctx context.Context, key string, value *MatchResult, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
