package recognition

import (
	"fmt"
	"log"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// DefaultThreshold is the acceptance threshold given to identities whose
// sample banks are too small to derive an adaptive one.
const DefaultThreshold = 0.38

// thresholdBreakpoints maps intra-identity consistency (mean pairwise cosine
// similarity of the bank) to a discrete acceptance threshold. A tighter bank
// earns a stricter threshold.
var thresholdBreakpoints = []struct {
	minMean   float64
	threshold float64
}{
	{0.88, 0.42},
	{0.82, 0.40},
	{0.78, 0.38},
}

const looseThreshold = 0.36

// indexEntry carries the identity metadata for one indexed sample row.
type indexEntry struct {
	identityID uint
	name       string
	threshold  float64
}

// index is an immutable flattened view of all banks. It is built off to the
// side and swapped in atomically so concurrent lookups never observe a
// half-rebuilt structure.
type index struct {
	entries []indexEntry
	search  SimilaritySearch
}

type bank struct {
	name           string
	samples        [][]float64 // normalized, oldest first
	representative []float64   // normalized fused vector, optional
	threshold      float64
}

// Store owns the in-memory embedding index: per-identity normalized sample
// banks plus their adaptive thresholds. Reads are safe under concurrent
// Reload/Update.
type Store struct {
	mu         sync.RWMutex
	idx        *index
	banks      map[uint]*bank
	order      []uint // first-seen identity order; fixes tie-break and row layout
	maxSamples int
	newSearch  NewSimilaritySearchFunc
}

// NewStore creates an empty store. maxSamples bounds each identity's bank;
// the oldest sample is evicted first. newSearch may be nil, in which case
// the dense matrix-vector implementation is used.
func NewStore(maxSamples int, newSearch NewSimilaritySearchFunc) *Store {
	if maxSamples <= 0 {
		maxSamples = 20
	}
	if newSearch == nil {
		newSearch = NewDenseSearch
	}
	return &Store{
		idx:        &index{search: NewDenseSearch(nil)},
		banks:      make(map[uint]*bank),
		maxSamples: maxSamples,
		newSearch:  newSearch,
	}
}

// Reload atomically replaces the whole index from a full snapshot of active
// identities. Malformed or empty banks are logged and skipped, never fatal.
func (s *Store) Reload(identities []Identity) {
	banks := make(map[uint]*bank, len(identities))
	order := make([]uint, 0, len(identities))

	for _, id := range identities {
		b := &bank{name: id.Name, threshold: id.Threshold}
		if b.threshold <= 0 {
			b.threshold = DefaultThreshold
		}
		for _, raw := range id.Samples {
			norm := Normalize(raw)
			if norm == nil {
				log.Printf("Store: skipping malformed sample for identity %d (%s)", id.ID, id.Name)
				continue
			}
			b.samples = append(b.samples, norm)
		}
		if len(b.samples) > s.maxSamples {
			b.samples = b.samples[len(b.samples)-s.maxSamples:]
		}
		if len(b.samples) == 0 {
			log.Printf("Store: identity %d (%s) has no usable samples, excluded from index", id.ID, id.Name)
			continue
		}
		if rep := Normalize(id.Representative); rep != nil {
			b.representative = rep
		}
		banks[id.ID] = b
		order = append(order, id.ID)
	}

	idx := buildIndex(banks, order, s.newSearch)

	s.mu.Lock()
	s.banks = banks
	s.order = order
	s.idx = idx
	s.mu.Unlock()

	log.Printf("Store: reloaded %d identities (%d indexed samples)", len(order), len(idx.entries))
}

// Update appends one normalized sample to a single identity's bank, evicting
// the oldest sample past the cap, and rebuilds the live index in place
// without a repository round-trip.
func (s *Store) Update(identityID uint, sample []float64) error {
	norm := Normalize(sample)
	if norm == nil {
		return fmt.Errorf("store: rejected malformed sample for identity %d", identityID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.banks[identityID]
	if !ok {
		return fmt.Errorf("store: identity %d not in index", identityID)
	}
	b.samples = append(b.samples, norm)
	if len(b.samples) > s.maxSamples {
		b.samples = b.samples[len(b.samples)-s.maxSamples:]
	}
	s.idx = buildIndex(s.banks, s.order, s.newSearch)
	return nil
}

// SetRepresentative installs a fused representative vector for an identity,
// indexed alongside its samples.
func (s *Store) SetRepresentative(identityID uint, vec []float64) error {
	norm := Normalize(vec)
	if norm == nil {
		return fmt.Errorf("store: rejected malformed representative for identity %d", identityID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.banks[identityID]
	if !ok {
		return fmt.Errorf("store: identity %d not in index", identityID)
	}
	b.representative = norm
	s.idx = buildIndex(s.banks, s.order, s.newSearch)
	return nil
}

// RecomputeThreshold derives a new adaptive threshold from the identity's
// current bank consistency and applies it. Banks with fewer than two samples
// keep their current threshold.
func (s *Store) RecomputeThreshold(identityID uint) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.banks[identityID]
	if !ok {
		return 0, fmt.Errorf("store: identity %d not in index", identityID)
	}
	if len(b.samples) < 2 {
		return b.threshold, nil
	}

	var sims []float64
	for i := 0; i < len(b.samples); i++ {
		for j := i + 1; j < len(b.samples); j++ {
			sims = append(sims, Cosine(b.samples[i], b.samples[j]))
		}
	}
	mean := stat.Mean(sims, nil)

	threshold := looseThreshold
	for _, bp := range thresholdBreakpoints {
		if mean > bp.minMean {
			threshold = bp.threshold
			break
		}
	}
	b.threshold = threshold
	s.idx = buildIndex(s.banks, s.order, s.newSearch)
	return threshold, nil
}

// snapshot returns the current immutable index for lock-free scoring.
func (s *Store) snapshot() *index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx
}

// Samples returns a copy of the identity's current bank, oldest first.
func (s *Store) Samples(identityID uint) [][]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.banks[identityID]
	if !ok {
		return nil
	}
	out := make([][]float64, len(b.samples))
	for i, v := range b.samples {
		c := make([]float64, len(v))
		copy(c, v)
		out[i] = c
	}
	return out
}

// LatestSample returns the most recently added sample for an identity, or
// nil if it has none.
func (s *Store) LatestSample(identityID uint) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.banks[identityID]
	if !ok || len(b.samples) == 0 {
		return nil
	}
	latest := b.samples[len(b.samples)-1]
	c := make([]float64, len(latest))
	copy(c, latest)
	return c
}

// Representative returns a copy of the identity's fused vector, or nil.
func (s *Store) Representative(identityID uint) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.banks[identityID]
	if !ok || b.representative == nil {
		return nil
	}
	c := make([]float64, len(b.representative))
	copy(c, b.representative)
	return c
}

// Threshold returns the identity's current acceptance threshold.
func (s *Store) Threshold(identityID uint) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.banks[identityID]
	if !ok {
		return 0, false
	}
	return b.threshold, true
}

// IdentityCount reports how many identities are currently indexed.
func (s *Store) IdentityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// SampleCount reports the number of indexed sample rows.
func (s *Store) SampleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idx.entries)
}

func buildIndex(banks map[uint]*bank, order []uint, newSearch NewSimilaritySearchFunc) *index {
	var entries []indexEntry
	var samples [][]float64
	for _, id := range order {
		b, ok := banks[id]
		if !ok {
			continue
		}
		rows := b.samples
		if b.representative != nil {
			rows = append(append([][]float64{}, b.samples...), b.representative)
		}
		for _, row := range rows {
			entries = append(entries, indexEntry{identityID: id, name: b.name, threshold: b.threshold})
			samples = append(samples, row)
		}
	}
	return &index{entries: entries, search: newSearch(samples)}
}
