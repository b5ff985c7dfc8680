package math

import stdmath "math"

// L2Norm returns the euclidean length of v, accumulated in float64
func L2Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return stdmath.Sqrt(sum)
}

// NormalizeInPlace scales v to unit length and returns the original norm.
// A zero vector is returned unchanged with norm 0.
func NormalizeInPlace(v []float32) float64 {
	norm := L2Norm(v)
	if norm == 0 {
		return 0
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return norm
}

// Normalized returns a unit-length copy of v
func Normalized(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	NormalizeInPlace(out)
	return out
}

// Dot is the inner product of two equally sized vectors
func Dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}
