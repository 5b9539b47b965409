// Package embedding turns texts into fixed size, L2 normalised vectors.
package embedding

import (
	"context"
	"math"
)

// Encoder embeds a batch of texts. Output order follows input order and every
// vector has Dimension() components with unit length (or zero length for text
// that carries no features). Implementations must be safe for concurrent use.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Normalize scales v to unit length in place. Zero vectors are left untouched.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Dot is the inner product of two vectors. Extra components of the longer
// vector are ignored.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
