package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/pearcestephens/catalogmatch/config"
	"github.com/pearcestephens/catalogmatch/internal/domain"
	"github.com/pearcestephens/catalogmatch/internal/infrastructure/cache"
	"github.com/pearcestephens/catalogmatch/internal/infrastructure/catalog"
	"github.com/pearcestephens/catalogmatch/internal/usecase"
)

func matcherConfig(cfg *config.Config) usecase.MatcherConfig {
	mc := usecase.DefaultMatcherConfig()
	mc.MinConfidence = cfg.Matching.MinConfidence
	mc.MaxAlternatives = cfg.Matching.MaxAlternatives
	mc.AttributeThreshold = cfg.Matching.AttributeThreshold
	mc.EnrichBrand = cfg.Matching.UseBrandExtraction
	mc.EnrichNicotine = cfg.Matching.UseNicotineExtraction
	mc.FoldAccents = cfg.Matching.FoldAccents
	mc.LoadTimeout = cfg.Database.LoadTimeout
	if len(cfg.Matching.Brands) > 0 {
		mc.BrandVocabulary = cfg.Matching.Brands
	}
	return mc
}

// openCatalog connects to the catalog store. A nil repository with a nil db is
// returned alongside the error so callers can still build a degraded matcher.
func openCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.CatalogRepository, *sqlx.DB, error) {
	db, err := catalog.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	repo, err := catalog.NewRepository(db, cfg.Database.Table, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, db, nil
}

// buildMatcher opens the catalog and loads the first snapshot.
// The returned cleanup closes the database and is never nil.
func buildMatcher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*usecase.Matcher, func(), error) {
	cleanup := func() {}

	var repo domain.CatalogRepository
	r, db, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Error("catalog store unavailable", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	} else {
		repo = r
		cleanup = func() { _ = db.Close() }
	}

	matcher, err := usecase.NewMatcher(ctx, repo, matcherConfig(cfg), logger)
	return matcher, cleanup, err
}

// buildCache returns the configured result cache, or nil for "none"
func buildCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.CacheRepository, func(), error) {
	switch cfg.Cache.Type {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	case "memory":
		mc := cache.NewMemoryCache(0)
		return mc, func() { _ = mc.Close() }, nil
	case "none":
		return nil, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported cache type %q", cfg.Cache.Type)
}
