package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pearcestephens/catalogmatch/internal/domain"
)

func TestObservationEnricher(t *testing.T) {
	enricher := NewObservationEnricher(nil, true, true, nil)

	t.Run("fills brand and nicotine from name", func(t *testing.T) {
		observed := domain.ObservedProduct{Name: "Vaporesso XROS 3 Pod Kit 3mg/ml"}
		enriched := enricher.Enrich(observed)

		assert.Equal(t, "Vaporesso", enriched.Brand)
		assert.Equal(t, "3mg/ml", enriched.Attributes.Nicotine)
		assert.Empty(t, observed.Brand, "input must not be modified")
	})

	t.Run("keeps caller supplied values", func(t *testing.T) {
		enriched := enricher.Enrich(domain.ObservedProduct{
			Name:       "SMOK Nord 4 Kit 6mg",
			Brand:      "Smok Tech",
			Attributes: domain.Attributes{Nicotine: "12mg"},
		})

		assert.Equal(t, "Smok Tech", enriched.Brand)
		assert.Equal(t, "12mg", enriched.Attributes.Nicotine)
	})

	t.Run("disabled extraction", func(t *testing.T) {
		off := NewObservationEnricher(nil, false, false, nil)
		enriched := off.Enrich(domain.ObservedProduct{Name: "SMOK Nord 4 Kit 6mg"})

		assert.Empty(t, enriched.Brand)
		assert.Empty(t, enriched.Attributes.Nicotine)
	})

	t.Run("custom vocabulary", func(t *testing.T) {
		custom := NewObservationEnricher(NewBrandExtractor([]string{"Acme"}), true, false, nil)

		assert.Equal(t, "Acme", custom.Enrich(domain.ObservedProduct{Name: "acme pod"}).Brand)
		assert.Empty(t, custom.Enrich(domain.ObservedProduct{Name: "SMOK pod"}).Brand)
	})
}
