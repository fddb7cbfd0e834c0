// Package ml holds the small set of types shared by the feature extractor and
// the classifier, so either side can be swapped without touching the pipeline.
package ml

import (
	"encoding"
	"sort"
)

// Vector is a sparse feature vector. Indices are strictly increasing and
// Values[i] is the value at Indices[i]; every other coordinate is zero.
type Vector struct {
	Indices []int
	Values  []float64
}

// At returns the value at feature index i.
func (v Vector) At(i int) float64 {
	k := sort.SearchInts(v.Indices, i)
	if k < len(v.Indices) && v.Indices[k] == i {
		return v.Values[k]
	}
	return 0
}

// NNZ is the number of stored (non-zero) entries.
func (v Vector) NNZ() int { return len(v.Indices) }

// Featurizer maps cleaned text onto a fixed feature space.
type Featurizer interface {
	Transform(text string) Vector
	Dim() int
	encoding.BinaryMarshaler
}

// Classifier maps a feature vector onto one of NumClasses() class indices.
type Classifier interface {
	Predict(x Vector) int
	PredictProba(x Vector) []float64
	NumClasses() int
	NumFeatures() int
	encoding.BinaryMarshaler
}

// Argmax returns the index of the largest value, preferring the lowest index
// on ties. It returns -1 for an empty slice.
func Argmax(p []float64) int {
	best := -1
	for i, v := range p {
		if best == -1 || v > p[best] {
			best = i
		}
	}
	return best
}
