package usecase

import (
	"regexp"
	"strings"
)

// nicotinePattern matches a decimal strength directly followed by its unit.
// "mg/ml" is listed before "mg" so the longer unit wins.
var nicotinePattern = regexp.MustCompile(`(?i)\d+(?:\.\d+)?(?:mg/ml|mg|%)`)

// DefaultBrandVocabulary is the brand list scanned by ExtractBrand.
// Order matters: the first entry found in the text wins, so multi-word brands
// that contain a shorter brand are listed ahead of it.
var DefaultBrandVocabulary = []string{
	"Lost Vape",
	"Vandy Vape",
	"Innokin",
	"SMOK",
	"Vaporesso",
	"GeekVape",
	"Voopoo",
	"Uwell",
	"Aspire",
	"Freemax",
	"OXVA",
	"Eleaf",
	"Joyetech",
	"Dotmod",
	"Hellvape",
	"Nasty Juice",
	"Dinner Lady",
	"Elf Bar",
	"Vuse",
	"Juul",
}

// BrandExtractor finds a known brand inside free text
type BrandExtractor struct {
	brands     []string
	normalized []string
}

// NewBrandExtractor creates an extractor over vocabulary, keeping its order.
// An empty vocabulary falls back to DefaultBrandVocabulary.
func NewBrandExtractor(vocabulary []string) *BrandExtractor {
	if len(vocabulary) == 0 {
		vocabulary = DefaultBrandVocabulary
	}

	e := &BrandExtractor{}
	for _, brand := range vocabulary {
		n := Normalize(brand)
		if n == "" {
			continue
		}
		e.brands = append(e.brands, brand)
		e.normalized = append(e.normalized, n)
	}
	return e
}

// Extract returns the first vocabulary entry whose normalized form occurs in the
// lowercased text, and false when none does. Vocabulary order breaks ties; this
// is not a longest-match policy.
func (e *BrandExtractor) Extract(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for i, n := range e.normalized {
		if strings.Contains(lower, n) {
			return e.brands[i], true
		}
	}
	return "", false
}

// Brands returns a copy of the vocabulary in scan order
func (e *BrandExtractor) Brands() []string {
	out := make([]string, len(e.brands))
	copy(out, e.brands)
	return out
}

var defaultBrandExtractor = NewBrandExtractor(DefaultBrandVocabulary)

// ExtractBrand scans text against DefaultBrandVocabulary
func ExtractBrand(text string) (string, bool) {
	return defaultBrandExtractor.Extract(text)
}

// ExtractNicotine returns the first nicotine-strength token in text verbatim,
// unit included ("3mg", "0.3%", "6mg/ml").
func ExtractNicotine(text string) (string, bool) {
	match := nicotinePattern.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}
