package recognition

import "math"

const normEpsilon = 1e-10

// Normalize returns the L2-normalized copy of vec, or nil for an empty or
// zero-norm input so callers can skip degenerate embeddings.
func Normalize(vec []float64) []float64 {
	if len(vec) == 0 {
		return nil
	}
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm < normEpsilon {
		return nil
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

// Cosine computes the cosine similarity of two unit vectors (a plain dot
// product). The result is clamped to [-1, 1] to absorb floating point error.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}
	return dot
}
