package recognition

import "gonum.org/v1/gonum/mat"

// SimilaritySearch scores a normalized query embedding against every indexed
// sample. Implementations are free to use whatever numeric backend they like
// as long as Scores returns one cosine similarity per indexed row, in row
// order.
type SimilaritySearch interface {
	Scores(query []float64) []float64
	Len() int
	Dim() int
}

// NewSimilaritySearchFunc builds a SimilaritySearch from a flattened set of
// normalized sample vectors. All rows must share one dimension.
type NewSimilaritySearchFunc func(samples [][]float64) SimilaritySearch

// denseSearch packs all samples into a dense matrix and scores a query with
// a single matrix-vector product.
type denseSearch struct {
	matrix *mat.Dense
	rows   int
	dim    int
}

// NewDenseSearch is the default SimilaritySearch implementation.
func NewDenseSearch(samples [][]float64) SimilaritySearch {
	if len(samples) == 0 || len(samples[0]) == 0 {
		return &denseSearch{}
	}
	dim := len(samples[0])
	data := make([]float64, 0, len(samples)*dim)
	for _, s := range samples {
		data = append(data, s...)
	}
	return &denseSearch{
		matrix: mat.NewDense(len(samples), dim, data),
		rows:   len(samples),
		dim:    dim,
	}
}

func (d *denseSearch) Scores(query []float64) []float64 {
	if d.matrix == nil || len(query) != d.dim {
		return nil
	}
	out := mat.NewVecDense(d.rows, nil)
	out.MulVec(d.matrix, mat.NewVecDense(d.dim, query))
	scores := make([]float64, d.rows)
	for i := 0; i < d.rows; i++ {
		s := out.AtVec(i)
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		scores[i] = s
	}
	return scores
}

func (d *denseSearch) Len() int { return d.rows }
func (d *denseSearch) Dim() int { return d.dim }

// naiveSearch scores with a plain per-row dot product loop. It exists as a
// reference implementation for tests and as a fallback when a build cannot
// carry the numeric backend.
type naiveSearch struct {
	samples [][]float64
	dim     int
}

func NewNaiveSearch(samples [][]float64) SimilaritySearch {
	if len(samples) == 0 {
		return &naiveSearch{}
	}
	return &naiveSearch{samples: samples, dim: len(samples[0])}
}

func (n *naiveSearch) Scores(query []float64) []float64 {
	if len(n.samples) == 0 || len(query) != n.dim {
		return nil
	}
	scores := make([]float64, len(n.samples))
	for i, s := range n.samples {
		scores[i] = Cosine(query, s)
	}
	return scores
}

func (n *naiveSearch) Len() int { return len(n.samples) }
func (n *naiveSearch) Dim() int { return n.dim }
