package recognition

import (
	"fmt"
	"log"
	"sort"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"
)

// BankSaver persists an identity's updated embedding bank. Implemented by
// the user repository.
type BankSaver interface {
	SaveEmbeddingBank(identityID uint, samples [][]float64, representative []float64, threshold float64) error
}

// TrainerConfig tunes when a high-confidence match is folded back into the
// identity's bank.
type TrainerConfig struct {
	// ScoreThreshold is the minimum match score before a sample is trusted
	// enough to learn from.
	ScoreThreshold float64
	// DuplicateSimilarity skips samples that are near-identical to the most
	// recent one; they add no information.
	DuplicateSimilarity float64
}

// Trainer lets an identity's bank drift gently with natural appearance
// change. Only very-high-confidence, non-duplicate samples are fused in, so
// a low-confidence frame can never poison the bank.
type Trainer struct {
	enabled atomic.Bool
	store   *Store
	saver   BankSaver
	cfg     TrainerConfig
}

func NewTrainer(store *Store, saver BankSaver, cfg TrainerConfig) *Trainer {
	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = 0.90
	}
	if cfg.DuplicateSimilarity <= 0 {
		cfg.DuplicateSimilarity = 0.98
	}
	return &Trainer{store: store, saver: saver, cfg: cfg}
}

// SetEnabled flips the global auto-train flag.
func (t *Trainer) SetEnabled(on bool) { t.enabled.Store(on) }

// Enabled reports the current auto-train flag.
func (t *Trainer) Enabled() bool { return t.enabled.Load() }

// Toggle inverts the flag and returns the new value.
func (t *Trainer) Toggle() bool {
	for {
		old := t.enabled.Load()
		if t.enabled.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// MaybeUpdate fuses a new sample into the identity's bank when the match was
// confident enough and the sample is not a near-duplicate of the latest one.
// Returns whether the bank was updated.
func (t *Trainer) MaybeUpdate(identityID uint, embedding []float64, matchScore float64) (bool, error) {
	if !t.enabled.Load() {
		return false, nil
	}
	if matchScore < t.cfg.ScoreThreshold {
		return false, nil
	}

	norm := Normalize(embedding)
	if norm == nil {
		return false, fmt.Errorf("trainer: malformed embedding for identity %d", identityID)
	}

	if latest := t.store.LatestSample(identityID); latest != nil {
		if Cosine(norm, latest) >= t.cfg.DuplicateSimilarity {
			return false, nil
		}
	}

	if err := t.store.Update(identityID, norm); err != nil {
		return false, err
	}

	samples := t.store.Samples(identityID)
	fused := FuseRepresentative(samples)
	if fused != nil {
		if err := t.store.SetRepresentative(identityID, fused); err != nil {
			return false, err
		}
	}

	threshold, err := t.store.RecomputeThreshold(identityID)
	if err != nil {
		return false, err
	}

	if t.saver != nil {
		if err := t.saver.SaveEmbeddingBank(identityID, samples, fused, threshold); err != nil {
			return true, fmt.Errorf("trainer: bank updated in memory but persist failed: %w", err)
		}
	}

	log.Printf("Trainer: identity %d fused new sample (score %.3f, bank size %d, threshold %.2f)",
		identityID, matchScore, len(samples), threshold)
	return true, nil
}

// FuseRepresentative computes the identity's fused vector: the normalized
// average of a variance-weighted mean (samples nearer the bank centroid
// weigh more) and the elementwise median across all samples.
func FuseRepresentative(samples [][]float64) []float64 {
	if len(samples) == 0 || len(samples[0]) == 0 {
		return nil
	}
	dim := len(samples[0])

	centroid := make([]float64, dim)
	for _, s := range samples {
		if len(s) != dim {
			return nil
		}
		for d, v := range s {
			centroid[d] += v
		}
	}
	for d := range centroid {
		centroid[d] /= float64(len(samples))
	}

	// Per-sample weight: inverse mean squared deviation from the centroid.
	weights := make([]float64, len(samples))
	for i, s := range samples {
		var dev float64
		for d, v := range s {
			diff := v - centroid[d]
			dev += diff * diff
		}
		weights[i] = 1.0 / (dev/float64(dim) + 1e-6)
	}

	weighted := make([]float64, dim)
	column := make([]float64, len(samples))
	median := make([]float64, dim)
	for d := 0; d < dim; d++ {
		for i, s := range samples {
			column[i] = s[d]
		}
		weighted[d] = stat.Mean(column, weights)

		sorted := append([]float64(nil), column...)
		sort.Float64s(sorted)
		median[d] = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}

	fused := make([]float64, dim)
	for d := 0; d < dim; d++ {
		fused[d] = (weighted[d] + median[d]) / 2
	}
	return Normalize(fused)
}
