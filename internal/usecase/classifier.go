package usecase

import "github.com/pearcestephens/catalogmatch/internal/domain"

// Confidence thresholds for match levels
const (
	exactThreshold  = 0.95
	strongThreshold = 0.85
	mediumThreshold = 0.70
	weakThreshold   = 0.50

	// DefaultMinConfidence is the default filter gate applied before ranking
	DefaultMinConfidence = 0.50
)

// MatchClassifier maps confidence to a match level and gates candidates on a minimum confidence
type MatchClassifier struct {
	minConfidence float64
}

// NewMatchClassifier creates a classifier with the given filter gate
func NewMatchClassifier(minConfidence float64) *MatchClassifier {
	return &MatchClassifier{minConfidence: minConfidence}
}

// Level classifies a confidence score. Thresholds are inclusive.
func (c *MatchClassifier) Level(confidence float64) domain.MatchLevel {
	switch {
	case confidence >= exactThreshold:
		return domain.MatchLevelExact
	case confidence >= strongThreshold:
		return domain.MatchLevelStrong
	case confidence >= mediumThreshold:
		return domain.MatchLevelMedium
	case confidence >= weakThreshold:
		return domain.MatchLevelWeak
	default:
		return domain.MatchLevelPoor
	}
}

// Accepts reports whether a candidate with this confidence survives the filter
func (c *MatchClassifier) Accepts(confidence float64) bool {
	return confidence >= c.minConfidence
}

// MinConfidence returns the filter gate
func (c *MatchClassifier) MinConfidence() float64 {
	return c.minConfidence
}
