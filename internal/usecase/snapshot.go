package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pearcestephens/catalogmatch/internal/domain"
)

// indexedEntry is a catalog entry with its comparison fields normalized once at load time
type indexedEntry struct {
	entry    domain.CatalogEntry
	name     string
	brand    string
	sku      string
	model    string
	hasImage bool
	attrs    normalizedAttributes
}

func indexEntry(entry domain.CatalogEntry, normalize Normalizer) indexedEntry {
	return indexedEntry{
		entry:    entry,
		name:     normalize(entry.Name),
		brand:    normalize(entry.Brand),
		sku:      normalize(entry.SKU),
		model:    normalize(entry.Model),
		hasImage: strings.TrimSpace(entry.ImageURL) != "",
		attrs:    normalizeAttributes(entry.Attributes, normalize),
	}
}

// CatalogSnapshot is an immutable, point-in-time list of active catalog entries.
// It is never modified after construction; a refresh builds a new snapshot.
type CatalogSnapshot struct {
	entries    []indexedEntry
	generation uint64
	loadedAt   time.Time
	loadErr    error
}

// NewCatalogSnapshot indexes entries into a snapshot with Normalize. The input slice is not retained.
func NewCatalogSnapshot(entries []domain.CatalogEntry, generation uint64) *CatalogSnapshot {
	return newCatalogSnapshot(entries, generation, Normalize)
}

func newCatalogSnapshot(entries []domain.CatalogEntry, generation uint64, normalize Normalizer) *CatalogSnapshot {
	if normalize == nil {
		normalize = Normalize
	}
	indexed := make([]indexedEntry, 0, len(entries))
	for _, e := range entries {
		indexed = append(indexed, indexEntry(e, normalize))
	}
	return &CatalogSnapshot{
		entries:    indexed,
		generation: generation,
		loadedAt:   time.Now(),
	}
}

// newDegradedSnapshot is the empty snapshot used when the catalog could not be read
func newDegradedSnapshot(generation uint64, loadErr error) *CatalogSnapshot {
	return &CatalogSnapshot{
		generation: generation,
		loadedAt:   time.Now(),
		loadErr:    loadErr,
	}
}

// LoadCatalogSnapshot reads every active entry from repo into a new snapshot.
// A nil normalize uses Normalize.
func LoadCatalogSnapshot(ctx context.Context, repo domain.CatalogRepository, generation uint64, normalize Normalizer) (*CatalogSnapshot, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: no catalog repository configured", domain.ErrCatalogUnavailable)
	}
	entries, err := repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return newCatalogSnapshot(entries, generation, normalize), nil
}

// Len returns the number of entries in the snapshot
func (s *CatalogSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns a copy of the catalog entries in load order
func (s *CatalogSnapshot) Entries() []domain.CatalogEntry {
	if s == nil {
		return nil
	}
	out := make([]domain.CatalogEntry, len(s.entries))
	for i := range s.entries {
		out[i] = s.entries[i].entry
	}
	return out
}

// Generation increases by one with every load attempt of the owning matcher
func (s *CatalogSnapshot) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.generation
}

// LoadedAt is when the snapshot was built
func (s *CatalogSnapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// LoadErr is non-nil when this snapshot is the empty fallback for a failed load
func (s *CatalogSnapshot) LoadErr() error {
	if s == nil {
		return nil
	}
	return s.loadErr
}
