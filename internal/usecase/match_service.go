package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pearcestephens/catalogmatch/internal/domain"
	"github.com/pearcestephens/catalogmatch/internal/metrics"
)

// MatchServiceConfig holds configuration for the match service
type MatchServiceConfig struct {
	CacheTTL     time.Duration
	BatchWorkers int
}

// MatchService fronts the matcher with a result cache
type MatchService struct {
	matcher      *Matcher
	cache        domain.CacheRepository
	cacheTTL     time.Duration
	batchWorkers int
	logger       *zap.Logger
}

// NewMatchService creates a new match service. cache may be nil to disable caching.
func NewMatchService(
	matcher *Matcher,
	cache domain.CacheRepository,
	config MatchServiceConfig,
	logger *zap.Logger,
) *MatchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}
	workers := config.BatchWorkers
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatchService{
		matcher:      matcher,
		cache:        cache,
		cacheTTL:     cacheTTL,
		batchWorkers: workers,
		logger:       logger,
	}
}

// Match finds the best catalog entry for an observed product.
// Flow: check cache -> match against snapshot -> cache matched results -> return
//
// While the catalog is unavailable the unmatched result is returned together
// with the load error, which wraps domain.ErrCatalogUnavailable.
func (s *MatchService) Match(ctx context.Context, observed domain.ObservedProduct) (*domain.MatchResult, error) {
	if loadErr := s.matcher.LoadErr(); loadErr != nil {
		result := s.matcher.MatchProduct(observed)
		return &result, loadErr
	}

	// The key covers what the matcher scores, which is the enriched product.
	enriched := s.matcher.Enrich(observed)
	generation := s.matcher.Snapshot().Generation()
	cacheKey := generateCacheKey(generation, enriched, s.matcher.normalize)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		return cached, nil
	}

	result := s.matcher.MatchProduct(enriched)

	// Unmatched results are cheap to recompute and may change after a refresh.
	if result.Matched {
		if err := s.setInCache(ctx, cacheKey, &result); err != nil {
			s.logger.Warn("failed to cache match result", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return &result, nil
}

// MatchBatch matches many products against one snapshot, bypassing the cache
func (s *MatchService) MatchBatch(ctx context.Context, observed []domain.ObservedProduct) ([]domain.MatchResult, error) {
	results, err := s.matcher.MatchBatch(ctx, observed, s.batchWorkers)
	if err != nil {
		return nil, err
	}
	if loadErr := s.matcher.LoadErr(); loadErr != nil {
		return results, loadErr
	}
	return results, nil
}

// Refresh reloads the catalog snapshot. Cached results are keyed by snapshot
// generation, so entries from the previous snapshot are never served again.
func (s *MatchService) Refresh(ctx context.Context) error {
	return s.matcher.Refresh(ctx)
}

// Matcher returns the underlying matcher
func (s *MatchService) Matcher() *Matcher {
	return s.matcher
}

// generateCacheKey creates a normalized cache key from an enriched observed product.
// Format: "match:{generation}:{name}:{brand}:{sku_or_model}:{attributes}:{has_image}"
func generateCacheKey(generation uint64, observed domain.ObservedProduct, normalize Normalizer) string {
	attrs := normalizeAttributes(observed.Attributes, normalize)
	hasImage := 0
	if strings.TrimSpace(observed.ImageURL) != "" {
		hasImage = 1
	}
	return fmt.Sprintf("match:%d:%s:%s:%s:%s:%d",
		generation,
		normalize(observed.Name),
		normalize(observed.Brand),
		normalize(observed.SKUOrModel),
		strings.Join(attrs, "|"),
		hasImage,
	)
}

// getFromCache retrieves a match result from cache
func (s *MatchService) getFromCache(ctx context.Context, key string) (*domain.MatchResult, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	result, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.RecordCacheLookup("hit")
		return result, nil
	case errors.Is(err, domain.ErrCacheMiss):
		metrics.RecordCacheLookup("miss")
	default:
		metrics.RecordCacheLookup("error")
		s.logger.Warn("match cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	return nil, err
}

// setInCache stores a match result in cache
func (s *MatchService) setInCache(ctx context.Context, key string, result *domain.MatchResult) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, result, s.cacheTTL)
}
