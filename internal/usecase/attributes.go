package usecase

import "github.com/pearcestephens/catalogmatch/internal/domain"

// DefaultAttributeThreshold is the composite similarity at which two attribute values count as equal
const DefaultAttributeThreshold = 0.85

// normalizedAttributes holds attribute values after Normalize, indexed like domain.AttributeKeys
type normalizedAttributes []string

func normalizeAttributes(attrs domain.Attributes, normalize Normalizer) normalizedAttributes {
	out := make(normalizedAttributes, len(domain.AttributeKeys))
	for i, key := range domain.AttributeKeys {
		out[i] = normalize(attrs.Get(key))
	}
	return out
}

// AttributeComparator compares the structured attributes of two products
type AttributeComparator struct {
	threshold float64
}

// NewAttributeComparator creates a comparator. A non-positive threshold uses DefaultAttributeThreshold.
func NewAttributeComparator(threshold float64) *AttributeComparator {
	if threshold <= 0 {
		threshold = DefaultAttributeThreshold
	}
	return &AttributeComparator{threshold: threshold}
}

// Compare returns the fraction of comparable attributes that match, and whether
// any attribute was comparable at all. Only keys present on both sides count.
func (c *AttributeComparator) Compare(observed, candidate domain.Attributes) (float64, bool) {
	return c.compareNormalized(normalizeAttributes(observed, Normalize), normalizeAttributes(candidate, Normalize))
}

func (c *AttributeComparator) compareNormalized(observed, candidate normalizedAttributes) (float64, bool) {
	compared, matched := 0, 0
	for i := range observed {
		if observed[i] == "" || candidate[i] == "" {
			continue
		}
		compared++
		if observed[i] == candidate[i] || normalizedSimilarity(observed[i], candidate[i]) >= c.threshold {
			matched++
		}
	}

	if compared == 0 {
		return 0.0, false
	}
	return float64(matched) / float64(compared), true
}
