package domain

// SignalName identifies one comparison dimension of the score aggregator
type SignalName string

const (
	SignalProductName SignalName = "name"
	SignalBrand       SignalName = "brand"
	SignalIdentifier  SignalName = "identifier"
	SignalAttributes  SignalName = "attributes"
	SignalImage       SignalName = "image"
)

// MatchLevel is the discrete classification of a confidence score
type MatchLevel string

const (
	MatchLevelExact  MatchLevel = "exact"
	MatchLevelStrong MatchLevel = "strong"
	MatchLevelMedium MatchLevel = "medium"
	MatchLevelWeak   MatchLevel = "weak"
	MatchLevelPoor   MatchLevel = "poor"
)

// MatchSignal is the score of a single comparison dimension.
// Applicable is false when one side lacked the data needed to compare;
// such signals are reported but excluded from the weighted average.
type MatchSignal struct {
	Name       SignalName `json:"name"`
	Score      float64    `json:"score"`
	Weight     float64    `json:"weight"`
	Applicable bool       `json:"applicable"`
}

// MatchCandidate is the scored comparison of an observed product against one catalog entry
type MatchCandidate struct {
	CatalogEntryID string        `json:"catalog_entry_id"`
	SKU            string        `json:"sku,omitempty"`
	Name           string        `json:"name,omitempty"`
	Confidence     float64       `json:"confidence"`
	Signals        []MatchSignal `json:"signals,omitempty"`
}

// MatchResult is the ranked outcome of matching one observed product against the catalog
type MatchResult struct {
	Matched      bool             `json:"matched"`
	Confidence   float64          `json:"confidence"`
	MatchLevel   MatchLevel       `json:"match_level"`
	Best         *MatchCandidate  `json:"best"`
	Alternatives []MatchCandidate `json:"alternatives"`
	Reason       string           `json:"reason,omitempty"`
}
