package recognition

// MatchStatus classifies the outcome of a single nearest-neighbor lookup.
type MatchStatus string

const (
	StatusMatch   MatchStatus = "match"
	StatusMaybe   MatchStatus = "maybe"
	StatusUnknown MatchStatus = "unknown"
)

// UnknownName is the display name reported for faces that cannot be matched.
const UnknownName = "Unknown"

// Box is a face bounding box in frame coordinates.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Detection is one detected face as delivered by the detection collaborator:
// an already-computed embedding vector plus its bounding box.
type Detection struct {
	Embedding []float64 `json:"embedding"`
	Box       Box       `json:"box"`
}

// Identity is a snapshot of one enrolled person's embedding bank as loaded
// from the repository. Samples are not required to be normalized on input;
// the store normalizes them on reload.
type Identity struct {
	ID             uint
	Name           string
	Samples        [][]float64
	Representative []float64
	Threshold      float64
}

// MatchResult is the verdict for a single query embedding. Produced fresh
// per lookup, never persisted.
type MatchResult struct {
	IdentityID uint        `json:"identity_id,omitempty"`
	Name       string      `json:"name"`
	Score      float64     `json:"score"`
	Status     MatchStatus `json:"status"`
}

// NoMatch returns the canonical unknown result with the given score.
func NoMatch(score float64) MatchResult {
	return MatchResult{Name: UnknownName, Score: score, Status: StatusUnknown}
}
