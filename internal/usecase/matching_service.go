package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pearcestephens/catalogmatch/internal/domain"
	"github.com/pearcestephens/catalogmatch/internal/metrics"
)

// Default matcher settings
const (
	DefaultMaxAlternatives = 4
	DefaultLoadTimeout     = 10 * time.Second
)

// Reasons reported on unmatched results
const (
	ReasonNoName             = "observed product has no name"
	ReasonCatalogUnavailable = "catalog unavailable"
	ReasonCatalogEmpty       = "catalog is empty"
	ReasonBelowMinConfidence = "no candidate above minimum confidence"
)

// MatcherConfig holds configuration for the matcher
type MatcherConfig struct {
	MinConfidence      float64
	MaxAlternatives    int
	AttributeThreshold float64
	Weights            SignalWeights
	BrandVocabulary    []string
	EnrichBrand        bool
	EnrichNicotine     bool
	FoldAccents        bool
	LoadTimeout        time.Duration
}

// DefaultMatcherConfig returns the production matcher settings
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		MinConfidence:      DefaultMinConfidence,
		MaxAlternatives:    DefaultMaxAlternatives,
		AttributeThreshold: DefaultAttributeThreshold,
		Weights:            DefaultSignalWeights(),
		BrandVocabulary:    DefaultBrandVocabulary,
		EnrichBrand:        true,
		EnrichNicotine:     true,
		LoadTimeout:        DefaultLoadTimeout,
	}
}

// Matcher scores observed products against an in-memory catalog snapshot.
//
// The snapshot is read through an atomic pointer and never modified, so any
// number of goroutines may call MatchProduct while Refresh swaps in a new one.
type Matcher struct {
	repo       domain.CatalogRepository
	config     MatcherConfig
	aggregator *ScoreAggregator
	classifier *MatchClassifier
	brands     *BrandExtractor
	enricher   *ObservationEnricher
	normalize  Normalizer
	logger     *zap.Logger

	snapshot   atomic.Pointer[CatalogSnapshot]
	generation atomic.Uint64
	refreshMu  sync.Mutex
}

// NewMatcher creates a matcher and eagerly loads the active catalog from repo.
//
// If the load fails the matcher is still returned, holding an empty snapshot,
// together with an error wrapping domain.ErrCatalogUnavailable. Callers may run
// degraded (every match reports the catalog as unavailable) or treat the error as fatal.
//
// A zero MinConfidence or MaxAlternatives is honored. Out of range values fall
// back to the defaults, and MaxAlternatives never exceeds DefaultMaxAlternatives.
func NewMatcher(ctx context.Context, repo domain.CatalogRepository, config MatcherConfig, logger *zap.Logger) (*Matcher, error) {
	if config.MinConfidence < 0 || config.MinConfidence > 1 {
		config.MinConfidence = DefaultMinConfidence
	}
	if config.MaxAlternatives < 0 {
		config.MaxAlternatives = DefaultMaxAlternatives
	}
	if config.MaxAlternatives > DefaultMaxAlternatives {
		config.MaxAlternatives = DefaultMaxAlternatives
	}
	if config.LoadTimeout <= 0 {
		config.LoadTimeout = DefaultLoadTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	brands := NewBrandExtractor(config.BrandVocabulary)
	m := &Matcher{
		repo:       repo,
		config:     config,
		aggregator: NewScoreAggregator(config.Weights, NewAttributeComparator(config.AttributeThreshold)),
		classifier: NewMatchClassifier(config.MinConfidence),
		brands:     brands,
		enricher:   NewObservationEnricher(brands, config.EnrichBrand, config.EnrichNicotine, logger),
		normalize:  normalizerFor(config.FoldAccents),
		logger:     logger,
	}

	snap, err := m.load(ctx)
	m.snapshot.Store(snap)
	if err != nil {
		return m, err
	}
	return m, nil
}

// load builds the next snapshot. On failure it returns an empty degraded snapshot and the error.
func (m *Matcher) load(ctx context.Context) (*CatalogSnapshot, error) {
	generation := m.generation.Add(1)

	loadCtx, cancel := context.WithTimeout(ctx, m.config.LoadTimeout)
	defer cancel()

	start := time.Now()
	snap, err := LoadCatalogSnapshot(loadCtx, m.repo, generation, m.normalize)
	if err != nil {
		m.logger.Error("catalog load failed, matching against an empty catalog",
			zap.Uint64("generation", generation),
			zap.Error(err))
		metrics.RecordLoadFailure()
		metrics.RecordSnapshot(0)
		return newDegradedSnapshot(generation, err), err
	}

	m.logger.Info("catalog snapshot loaded",
		zap.Uint64("generation", generation),
		zap.Int("entries", snap.Len()),
		zap.Duration("took", time.Since(start)))
	metrics.RecordSnapshot(snap.Len())
	return snap, nil
}

// Refresh loads a new snapshot and atomically swaps it in. When the load fails a
// healthy snapshot stays in place; a degraded one is replaced so LoadErr reports
// the latest failure.
func (m *Matcher) Refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	snap, err := m.load(ctx)
	if err != nil {
		if current := m.snapshot.Load(); current == nil || current.LoadErr() != nil {
			m.snapshot.Store(snap)
		} else {
			metrics.RecordSnapshot(current.Len())
		}
		return err
	}

	m.snapshot.Store(snap)
	return nil
}

// RunRefresher refreshes the snapshot every interval until ctx is done
func (m *Matcher) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Warn("periodic catalog refresh failed", zap.Error(err))
			}
		}
	}
}

// Snapshot returns the snapshot currently used for matching
func (m *Matcher) Snapshot() *CatalogSnapshot {
	return m.snapshot.Load()
}

// LoadErr reports why the current snapshot is empty, or nil when it loaded normally
func (m *Matcher) LoadErr() error {
	return m.snapshot.Load().LoadErr()
}

// Config returns the effective configuration
func (m *Matcher) Config() MatcherConfig {
	return m.config
}

// Enrich fills gaps in observed from its free text the same way MatchProduct does.
// Enriching an already enriched product returns it unchanged.
func (m *Matcher) Enrich(observed domain.ObservedProduct) domain.ObservedProduct {
	return m.enricher.Enrich(observed)
}

// ExtractBrand scans text against the matcher's brand vocabulary
func (m *Matcher) ExtractBrand(text string) (string, bool) {
	return m.brands.Extract(text)
}

// MatchProduct scores observed against every snapshot entry, drops candidates
// below the minimum confidence, ranks the rest and classifies the best one.
func (m *Matcher) MatchProduct(observed domain.ObservedProduct) domain.MatchResult {
	start := time.Now()
	result := m.matchAgainst(m.snapshot.Load(), observed)
	metrics.RecordMatch(string(result.MatchLevel), result.Matched, time.Since(start))
	return result
}

// MatchBatch matches products concurrently against a single snapshot, so every
// result in the batch reflects the same catalog generation. Results keep the
// order of products. A non-positive workers value runs one worker.
func (m *Matcher) MatchBatch(ctx context.Context, products []domain.ObservedProduct, workers int) ([]domain.MatchResult, error) {
	if workers <= 0 {
		workers = 1
	}
	snap := m.snapshot.Load()
	results := make([]domain.MatchResult, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range products {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i] = m.matchAgainst(snap, products[i])
			metrics.RecordMatch(string(results[i].MatchLevel), results[i].Matched, time.Since(start))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (m *Matcher) matchAgainst(snap *CatalogSnapshot, observed domain.ObservedProduct) domain.MatchResult {
	obs := observe(m.enricher.Enrich(observed), m.normalize)
	if obs.name == "" {
		return unmatched(ReasonNoName)
	}
	if snap.Len() == 0 {
		if snap.LoadErr() != nil {
			return unmatched(ReasonCatalogUnavailable)
		}
		return unmatched(ReasonCatalogEmpty)
	}

	candidates := make([]domain.MatchCandidate, 0)
	for i := range snap.entries {
		candidate := m.aggregator.score(obs, &snap.entries[i])
		if !m.classifier.Accepts(candidate.Confidence) {
			continue
		}
		candidates = append(candidates, candidate)
	}

	if len(candidates) == 0 {
		return unmatched(ReasonBelowMinConfidence)
	}

	// Stable so equal scores keep catalog order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	best := candidates[0]
	rest := candidates[1:]
	if len(rest) > m.config.MaxAlternatives {
		rest = rest[:m.config.MaxAlternatives]
	}
	alternatives := make([]domain.MatchCandidate, len(rest))
	for i, c := range rest {
		c.Signals = nil
		alternatives[i] = c
	}

	return domain.MatchResult{
		Matched:      true,
		Confidence:   best.Confidence,
		MatchLevel:   m.classifier.Level(best.Confidence),
		Best:         &best,
		Alternatives: alternatives,
	}
}

func unmatched(reason string) domain.MatchResult {
	return domain.MatchResult{
		Matched:      false,
		Confidence:   0.0,
		MatchLevel:   domain.MatchLevelPoor,
		Alternatives: []domain.MatchCandidate{},
		Reason:       reason,
	}
}
