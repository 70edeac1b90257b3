// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

package vector

import "math"

// SparseVector is a vector over the model vocabulary. Indices are strictly
// increasing and Values[i] is the weight of term Indices[i].
type SparseVector struct {
	Indices []int32
	Values  []float32
}

// Len returns the number of non-zero entries.
func (v SparseVector) Len() int {
	return len(v.Indices)
}

// IsZero reports whether the vector has no non-zero entries.
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// Dot returns the inner product of v and o. Both vectors must be sorted,
// which Transform guarantees.
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += float64(v.Values[i]) * float64(o.Values[j])
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm returns the Euclidean length of v.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of v and o, or 0 if either is zero.
func Cosine(v, o SparseVector) float64 {
	nv, no := v.Norm(), o.Norm()
	if nv == 0 || no == 0 {
		return 0
	}
	return v.Dot(o) / (nv * no)
}
