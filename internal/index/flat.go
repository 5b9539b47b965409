// Package index provides an exact inner product index over normalised
// vectors. One index serves a single matching call and is then dropped.
package index

import (
	"fmt"
	"sort"

	"github.com/spigell/jobmatch/internal/embedding"
)

// Hit is a search result: the position of the vector at build time and its
// similarity to the query.
type Hit struct {
	Index int
	Score float64
}

// Flat scans every vector on search.
type Flat struct {
	dim     int
	vectors [][]float32
}

// Build copies and normalises vectors. All vectors must share a dimension.
func Build(vectors [][]float32) (*Flat, error) {
	f := &Flat{vectors: make([][]float32, len(vectors))}

	for i, v := range vectors {
		if i == 0 {
			f.dim = len(v)
		} else if len(v) != f.dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), f.dim)
		}

		cp := make([]float32, len(v))
		copy(cp, v)
		f.vectors[i] = embedding.Normalize(cp)
	}

	return f, nil
}

func (f *Flat) Len() int {
	if f == nil {
		return 0
	}
	return len(f.vectors)
}

func (f *Flat) Dimension() int {
	return f.dim
}

// Search returns the k most similar vectors in descending score order. Equal
// scores keep build order. k is clamped to [0, Len()].
func (f *Flat) Search(query []float32, k int) []Hit {
	if k > f.Len() {
		k = f.Len()
	}
	if k <= 0 {
		return []Hit{}
	}

	q := make([]float32, len(query))
	copy(q, query)
	embedding.Normalize(q)

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{Index: i, Score: embedding.Dot(q, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	return hits[:k]
}
