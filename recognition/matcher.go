package recognition

// Matcher resolves a query embedding to the best-matching indexed identity.
//
// The identity's own adaptive threshold decides the match/maybe boundary; the
// lower, global fallback threshold only surfaces near-misses for UI feedback
// and never authorizes a state change.
type Matcher struct {
	store *Store
}

func NewMatcher(store *Store) *Matcher {
	return &Matcher{store: store}
}

// FindBestMatch scores the query against every indexed sample and classifies
// the single best hit. Ties keep the first-seen row (accepted behavior, not
// a guarantee). An empty index, empty query, or zero-norm query yields
// status unknown.
func (m *Matcher) FindBestMatch(query []float64, fallbackThreshold float64) MatchResult {
	idx := m.store.snapshot()
	if len(idx.entries) == 0 {
		return NoMatch(0)
	}

	q := Normalize(query)
	if q == nil {
		return NoMatch(0)
	}

	scores := idx.search.Scores(q)
	if scores == nil {
		return NoMatch(0)
	}

	bestRow := 0
	bestScore := scores[0]
	for i := 1; i < len(scores); i++ {
		if scores[i] > bestScore {
			bestScore = scores[i]
			bestRow = i
		}
	}

	entry := idx.entries[bestRow]
	switch {
	case bestScore >= entry.threshold:
		return MatchResult{
			IdentityID: entry.identityID,
			Name:       entry.name,
			Score:      bestScore,
			Status:     StatusMatch,
		}
	case bestScore >= fallbackThreshold:
		return MatchResult{
			IdentityID: entry.identityID,
			Name:       entry.name,
			Score:      bestScore,
			Status:     StatusMaybe,
		}
	default:
		return NoMatch(bestScore)
	}
}
