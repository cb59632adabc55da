package recognition

import (
	"testing"
	"time"
)

func newTestTracker(t *testing.T, cfg TrackerConfig, identities ...Identity) (*Tracker, *time.Time) {
	t.Helper()
	s := NewStore(10, NewNaiveSearch)
	s.Reload(identities)
	tr := NewTracker(NewMatcher(s), 0.30, cfg)

	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return clock }
	return tr, &clock
}

func alice() Identity {
	return Identity{ID: 1, Name: "Alice", Samples: [][]float64{{1, 0, 0}}, Threshold: 0.40}
}

func TestTrackerConfirmsAfterRepeatCount(t *testing.T) {
	tr, _ := newTestTracker(t, TrackerConfig{RepeatCount: 3}, alice())
	q := []float64{1, 0, 0}

	for frame := 1; frame <= 2; frame++ {
		got := tr.Observe(q)
		if got.State != TrackVerifying {
			t.Fatalf("frame %d: state = %q, want verifying", frame, got.State)
		}
	}

	got := tr.Observe(q)
	if got.State != TrackConfirmed {
		t.Fatalf("frame 3: state = %q, want confirmed", got.State)
	}
	if got.Name != "Alice" || got.IdentityID != 1 {
		t.Errorf("confirmed %q (id %d), want Alice (1)", got.Name, got.IdentityID)
	}
}

func TestTrackerRepeatCountOneConfirmsImmediately(t *testing.T) {
	tr, _ := newTestTracker(t, TrackerConfig{RepeatCount: 1}, alice())

	got := tr.Observe([]float64{1, 0, 0})
	if got.State != TrackConfirmed {
		t.Errorf("state = %q, want confirmed on first frame", got.State)
	}
}

func TestTrackerFreezesUnknown(t *testing.T) {
	tr, _ := newTestTracker(t, TrackerConfig{RepeatCount: 2}, alice())
	// Same physical face (high self-similarity) but never matching Alice.
	q := []float64{0, 1, 0}

	first := tr.Observe(q)
	if first.State != TrackVerifying {
		t.Fatalf("frame 1: state = %q, want verifying", first.State)
	}
	second := tr.Observe(q)
	if second.State != TrackUnknown {
		t.Fatalf("frame 2: state = %q, want frozen unknown", second.State)
	}
	if second.Name != UnknownName {
		t.Errorf("frozen name = %q, want %q", second.Name, UnknownName)
	}

	// Frozen entries stay unknown without re-matching until expiry.
	third := tr.Observe(q)
	if third.State != TrackUnknown {
		t.Errorf("frame 3: state = %q, want unknown", third.State)
	}
}

func TestTrackerConfirmedStateIsSticky(t *testing.T) {
	tr, _ := newTestTracker(t, TrackerConfig{RepeatCount: 1}, alice())
	q := []float64{1, 0, 0}

	first := tr.Observe(q)
	if first.State != TrackConfirmed {
		t.Fatalf("setup: state = %q, want confirmed", first.State)
	}

	again := tr.Observe(q)
	if again.State != TrackConfirmed || again.Key != first.Key {
		t.Errorf("repeat observation gave state %q key %q, want sticky confirmed %q",
			again.State, again.Key, first.Key)
	}
}

func TestTrackerDistinctFacesGetDistinctKeys(t *testing.T) {
	tr, _ := newTestTracker(t, TrackerConfig{RepeatCount: 3, ConfirmSimilarity: 0.80}, alice())

	a := tr.Observe([]float64{1, 0, 0})
	b := tr.Observe([]float64{0, 1, 0})
	if a.Key == b.Key {
		t.Error("orthogonal embeddings share a tracking key")
	}
	if got := tr.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount() = %d, want 2", got)
	}
}

func TestTrackerExpiryAllowsReevaluation(t *testing.T) {
	tr, clock := newTestTracker(t, TrackerConfig{RepeatCount: 2, Expiry: 4 * time.Second}, alice())
	q := []float64{0, 1, 0}

	tr.Observe(q)
	tr.Observe(q) // frozen unknown now

	*clock = clock.Add(5 * time.Second)

	got := tr.Observe(q)
	if got.State != TrackVerifying {
		t.Errorf("post-expiry state = %q, want fresh verifying", got.State)
	}
}

func TestTrackerPurge(t *testing.T) {
	tr, clock := newTestTracker(t, TrackerConfig{RepeatCount: 3, Expiry: 4 * time.Second}, alice())
	tr.Observe([]float64{1, 0, 0})
	tr.Observe([]float64{0, 1, 0})

	*clock = clock.Add(10 * time.Second)

	if purged := tr.Purge(); purged != 2 {
		t.Errorf("Purge() = %d, want 2", purged)
	}
	if got := tr.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() = %d after purge, want 0", got)
	}
}

func TestTrackerRelease(t *testing.T) {
	tr, _ := newTestTracker(t, TrackerConfig{RepeatCount: 1}, alice())
	q := []float64{1, 0, 0}

	got := tr.Observe(q)
	tr.Release(got.Key)

	if count := tr.ActiveCount(); count != 0 {
		t.Fatalf("ActiveCount() = %d after release, want 0", count)
	}

	// The same face restarts from scratch instead of riding the old
	// confirmation.
	tr2, _ := newTestTracker(t, TrackerConfig{RepeatCount: 2}, alice())
	first := tr2.Observe(q)
	tr2.Release(first.Key)
	fresh := tr2.Observe(q)
	if fresh.State != TrackVerifying {
		t.Errorf("post-release state = %q, want verifying", fresh.State)
	}
	if fresh.Key == first.Key {
		t.Error("released key was reused")
	}
}

func TestTrackerDegenerateEmbedding(t *testing.T) {
	tr, _ := newTestTracker(t, TrackerConfig{RepeatCount: 3}, alice())

	got := tr.Observe([]float64{0, 0, 0})
	if got.State != TrackUnknown {
		t.Errorf("zero embedding gave state %q, want unknown", got.State)
	}
	if tr.ActiveCount() != 0 {
		t.Error("degenerate embedding should not create a track entry")
	}
}

func TestTrackerMaybeVerdictsFreezeUnknown(t *testing.T) {
	// A face stuck in the maybe band never confirms; repeated non-match
	// verdicts freeze it unknown instead.
	tr, _ := newTestTracker(t, TrackerConfig{RepeatCount: 3}, alice())
	q := Normalize([]float64{0.35, 0.94, 0}) // ~0.35 vs Alice: above fallback, below threshold

	for frame := 1; frame <= 2; frame++ {
		got := tr.Observe(q)
		if got.State != TrackVerifying {
			t.Fatalf("frame %d: state = %q, want verifying", frame, got.State)
		}
		if got.Status != StatusMaybe {
			t.Fatalf("frame %d: match status = %q, want maybe", frame, got.Status)
		}
	}

	got := tr.Observe(q)
	if got.State != TrackUnknown {
		t.Errorf("frame 3: state = %q, want frozen unknown", got.State)
	}
}
