package usecase

import (
	"strings"

	"github.com/pearcestephens/catalogmatch/internal/domain"
)

// SignalWeights are the relative weights of the five match signals
type SignalWeights struct {
	Name       float64
	Brand      float64
	Identifier float64
	Attributes float64
	Image      float64
}

// DefaultSignalWeights returns the production weights
func DefaultSignalWeights() SignalWeights {
	return SignalWeights{
		Name:       0.40,
		Brand:      0.20,
		Identifier: 0.25,
		Attributes: 0.15,
		Image:      0.10,
	}
}

func (w SignalWeights) isZero() bool {
	return w == SignalWeights{}
}

// observation is an observed product with its comparison fields normalized
type observation struct {
	name       string
	brand      string
	identifier string
	hasImage   bool
	attrs      normalizedAttributes
}

func observe(p domain.ObservedProduct, normalize Normalizer) observation {
	return observation{
		name:       normalize(p.Name),
		brand:      normalize(p.Brand),
		identifier: normalize(p.SKUOrModel),
		hasImage:   strings.TrimSpace(p.ImageURL) != "",
		attrs:      normalizeAttributes(p.Attributes, normalize),
	}
}

// ScoreAggregator fuses the individual signals into one confidence per candidate.
//
// Only applicable signals, those whose inputs exist on both sides, contribute,
// and the weighted sum is divided by the weights of those signals alone. A
// candidate missing brand data is therefore judged on what both records share
// instead of being dragged down by the absent brand weight.
type ScoreAggregator struct {
	weights    SignalWeights
	attributes *AttributeComparator
}

// NewScoreAggregator creates an aggregator. Zero weights use DefaultSignalWeights
// and a nil comparator uses the default attribute threshold.
func NewScoreAggregator(weights SignalWeights, attributes *AttributeComparator) *ScoreAggregator {
	if weights.isZero() {
		weights = DefaultSignalWeights()
	}
	if attributes == nil {
		attributes = NewAttributeComparator(DefaultAttributeThreshold)
	}
	return &ScoreAggregator{weights: weights, attributes: attributes}
}

// Score compares an observed product with one catalog entry
func (a *ScoreAggregator) Score(observed domain.ObservedProduct, entry domain.CatalogEntry) domain.MatchCandidate {
	indexed := indexEntry(entry, Normalize)
	return a.score(observe(observed, Normalize), &indexed)
}

func (a *ScoreAggregator) score(obs observation, e *indexedEntry) domain.MatchCandidate {
	signals := make([]domain.MatchSignal, 0, 5)

	// The catalog always carries a name, so the name signal always applies.
	signals = append(signals, domain.MatchSignal{
		Name:       domain.SignalProductName,
		Score:      normalizedSimilarity(obs.name, e.name),
		Weight:     a.weights.Name,
		Applicable: true,
	})

	brand := domain.MatchSignal{Name: domain.SignalBrand, Weight: a.weights.Brand}
	if obs.brand != "" && e.brand != "" {
		brand.Applicable = true
		brand.Score = normalizedSimilarity(obs.brand, e.brand)
	}
	signals = append(signals, brand)

	identifier := domain.MatchSignal{Name: domain.SignalIdentifier, Weight: a.weights.Identifier}
	if obs.identifier != "" && (e.sku != "" || e.model != "") {
		identifier.Applicable = true
		identifier.Score = max(
			normalizedSimilarity(obs.identifier, e.sku),
			normalizedSimilarity(obs.identifier, e.model),
		)
	}
	signals = append(signals, identifier)

	attributes := domain.MatchSignal{Name: domain.SignalAttributes, Weight: a.weights.Attributes}
	if score, ok := a.attributes.compareNormalized(obs.attrs, e.attrs); ok {
		attributes.Applicable = true
		attributes.Score = score
	}
	signals = append(signals, attributes)

	// Image comparison is not implemented; the signal scores 0.0 but its
	// weight still counts whenever both sides have an image URL.
	image := domain.MatchSignal{Name: domain.SignalImage, Weight: a.weights.Image}
	if obs.hasImage && e.hasImage {
		image.Applicable = true
	}
	signals = append(signals, image)

	return domain.MatchCandidate{
		CatalogEntryID: e.entry.ID,
		SKU:            e.entry.SKU,
		Name:           e.entry.Name,
		Confidence:     weightedConfidence(signals),
		Signals:        signals,
	}
}

// weightedConfidence divides the weighted score sum by the total weight of the
// applicable signals. With no applicable weight the confidence is 0.0.
func weightedConfidence(signals []domain.MatchSignal) float64 {
	var weightedSum, totalWeight float64
	for _, s := range signals {
		if !s.Applicable {
			continue
		}
		weightedSum += s.Score * s.Weight
		totalWeight += s.Weight
	}
	if totalWeight <= 0 {
		return 0.0
	}
	return clamp01(weightedSum / totalWeight)
}
