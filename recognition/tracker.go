package recognition

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TrackState is the lifecycle state of one tracked face.
type TrackState string

const (
	// TrackVerifying covers both a freshly created entry and one still
	// accumulating agreeing verdicts.
	TrackVerifying TrackState = "verifying"
	TrackConfirmed TrackState = "confirmed"
	// TrackUnknown is the frozen permanently-unknown state; the face stays
	// unknown until its entry expires and it can be re-evaluated.
	TrackUnknown TrackState = "unknown"
)

// TrackerConfig carries the empirically tuned knobs of the confirmation
// state machine. They are deliberately configuration, not constants.
type TrackerConfig struct {
	// ConfirmSimilarity decides whether a new detection is the same physical
	// face as a cached entry. It is about tracking continuity only and is
	// unrelated to identity acceptance thresholds.
	ConfirmSimilarity float64
	// RepeatCount is how many agreeing verdicts promote an entry to
	// confirmed, and equally how many disagreeing ones freeze it unknown.
	RepeatCount int
	// Expiry purges entries not seen for this long, letting a face that left
	// the frame be re-evaluated from scratch.
	Expiry time.Duration
}

// TrackedResult is the tracker's verdict for one detection: the underlying
// match plus where its entry sits in the confirmation lifecycle.
type TrackedResult struct {
	Key string
	MatchResult
	State TrackState
}

type trackEntry struct {
	key           string
	lastEmbedding []float64 // normalized
	pendingID     uint
	pendingName   string
	lastScore     float64
	confirmCount  int
	unknownCount  int
	state         TrackState
	confirmed     MatchResult // frozen verdict once state leaves verifying
	lastSeen      time.Time
}

// Tracker stabilizes noisy per-frame matches into confirmed (or permanently
// unknown) identities. A single embedding comparison against a live camera
// feed is unreliable; repeated independent agreement is the correctness
// guarantee here, paid for with a short confirmation delay.
type Tracker struct {
	mu       sync.Mutex
	cfg      TrackerConfig
	matcher  *Matcher
	fallback float64
	entries  map[string]*trackEntry
	now      func() time.Time
}

func NewTracker(matcher *Matcher, fallbackThreshold float64, cfg TrackerConfig) *Tracker {
	if cfg.RepeatCount <= 0 {
		cfg.RepeatCount = 3
	}
	if cfg.ConfirmSimilarity <= 0 {
		cfg.ConfirmSimilarity = 0.80
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 4 * time.Second
	}
	return &Tracker{
		cfg:      cfg,
		matcher:  matcher,
		fallback: fallbackThreshold,
		entries:  make(map[string]*trackEntry),
		now:      time.Now,
	}
}

// Observe feeds one detection through the confirmation state machine and
// returns the current verdict for that face. Expired entries are purged at
// the start of every cycle.
func (t *Tracker) Observe(embedding []float64) TrackedResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.purgeLocked(now)

	q := Normalize(embedding)
	if q == nil {
		return TrackedResult{MatchResult: NoMatch(0), State: TrackUnknown}
	}

	entry := t.findEntryLocked(q)
	if entry == nil {
		return t.createEntryLocked(q, now)
	}

	entry.lastEmbedding = q
	entry.lastSeen = now

	// Frozen entries skip re-matching entirely until they expire. This is a
	// cost optimization, not re-verification.
	switch entry.state {
	case TrackConfirmed:
		return TrackedResult{Key: entry.key, MatchResult: entry.confirmed, State: TrackConfirmed}
	case TrackUnknown:
		return TrackedResult{Key: entry.key, MatchResult: NoMatch(entry.lastScore), State: TrackUnknown}
	}

	verdict := t.matcher.FindBestMatch(q, t.fallback)
	entry.lastScore = verdict.Score

	agrees := verdict.Status == StatusMatch && verdict.Name == entry.pendingName && entry.pendingName != ""
	adopts := verdict.Status == StatusMatch && entry.pendingName == ""

	switch {
	case agrees:
		entry.confirmCount++
	case adopts:
		entry.pendingID = verdict.IdentityID
		entry.pendingName = verdict.Name
		entry.confirmCount = 1
	default:
		entry.unknownCount++
	}

	if entry.confirmCount >= t.cfg.RepeatCount {
		entry.state = TrackConfirmed
		entry.confirmed = MatchResult{
			IdentityID: entry.pendingID,
			Name:       entry.pendingName,
			Score:      verdict.Score,
			Status:     StatusMatch,
		}
		return TrackedResult{Key: entry.key, MatchResult: entry.confirmed, State: TrackConfirmed}
	}
	if entry.unknownCount >= t.cfg.RepeatCount {
		entry.state = TrackUnknown
		return TrackedResult{Key: entry.key, MatchResult: NoMatch(verdict.Score), State: TrackUnknown}
	}

	return TrackedResult{Key: entry.key, MatchResult: verdict, State: TrackVerifying}
}

// Release drops a single entry, used after a successful attendance mark so
// the same person standing in frame does not instantly re-trigger.
func (t *Tracker) Release(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// Purge removes expired entries. Observe purges on its own; this exists for
// the periodic housekeeping job so idle sessions do not hold memory.
func (t *Tracker) Purge() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	before := len(t.entries)
	t.purgeLocked(t.now())
	return before - len(t.entries)
}

// ActiveCount reports the number of live track entries.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Tracker) purgeLocked(now time.Time) {
	for key, entry := range t.entries {
		if now.Sub(entry.lastSeen) > t.cfg.Expiry {
			delete(t.entries, key)
		}
	}
}

// findEntryLocked picks the cached entry whose last embedding most closely
// matches the detection, if any clears the confirmation similarity. Distinct
// physical faces land on distinct entries because their embeddings fall
// below that bar.
func (t *Tracker) findEntryLocked(q []float64) *trackEntry {
	var best *trackEntry
	bestSim := t.cfg.ConfirmSimilarity
	for _, entry := range t.entries {
		sim := Cosine(q, entry.lastEmbedding)
		if sim >= bestSim {
			best = entry
			bestSim = sim
		}
	}
	return best
}

func (t *Tracker) createEntryLocked(q []float64, now time.Time) TrackedResult {
	entry := &trackEntry{
		key:           uuid.NewString(),
		lastEmbedding: q,
		state:         TrackVerifying,
		lastSeen:      now,
	}

	verdict := t.matcher.FindBestMatch(q, t.fallback)
	entry.lastScore = verdict.Score
	if verdict.Status == StatusMatch {
		entry.pendingID = verdict.IdentityID
		entry.pendingName = verdict.Name
		entry.confirmCount = 1
	} else {
		entry.unknownCount = 1
	}
	t.entries[entry.key] = entry

	// A repeat count of one confirms on the very first frame.
	if entry.confirmCount >= t.cfg.RepeatCount {
		entry.state = TrackConfirmed
		entry.confirmed = verdict
		return TrackedResult{Key: entry.key, MatchResult: verdict, State: TrackConfirmed}
	}
	if entry.unknownCount >= t.cfg.RepeatCount {
		entry.state = TrackUnknown
		return TrackedResult{Key: entry.key, MatchResult: NoMatch(verdict.Score), State: TrackUnknown}
	}

	return TrackedResult{Key: entry.key, MatchResult: verdict, State: TrackVerifying}
}
