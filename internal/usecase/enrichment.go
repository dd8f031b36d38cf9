package usecase

import (
	"strings"

	"go.uber.org/zap"

	"github.com/pearcestephens/catalogmatch/internal/domain"
)

// ObservationEnricher fills attributes a scraper left empty by reading them out of the product name
type ObservationEnricher struct {
	brands         *BrandExtractor
	enrichBrand    bool
	enrichNicotine bool
	logger         *zap.Logger
}

// NewObservationEnricher creates an enricher. A nil extractor uses the default vocabulary.
func NewObservationEnricher(brands *BrandExtractor, enrichBrand, enrichNicotine bool, logger *zap.Logger) *ObservationEnricher {
	if brands == nil {
		brands = defaultBrandExtractor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObservationEnricher{
		brands:         brands,
		enrichBrand:    enrichBrand,
		enrichNicotine: enrichNicotine,
		logger:         logger,
	}
}

// Enrich returns a copy of p with a brand and nicotine strength extracted from
// its name where they were missing. Values supplied by the caller are kept.
func (e *ObservationEnricher) Enrich(p domain.ObservedProduct) domain.ObservedProduct {
	if e.enrichBrand && strings.TrimSpace(p.Brand) == "" {
		if brand, ok := e.brands.Extract(p.Name); ok {
			p.Brand = brand
			e.logger.Debug("brand extracted from name", zap.String("name", p.Name), zap.String("brand", brand))
		}
	}

	if e.enrichNicotine && strings.TrimSpace(p.Attributes.Nicotine) == "" {
		if nicotine, ok := ExtractNicotine(p.Name); ok {
			p.Attributes.Nicotine = nicotine
			e.logger.Debug("nicotine extracted from name", zap.String("name", p.Name), zap.String("nicotine", nicotine))
		}
	}

	return p
}
