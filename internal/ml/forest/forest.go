// Package forest implements a random forest of CART decision trees over
// sparse feature vectors.
package forest

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"resumeclf/internal/ml"
)

var (
	ErrNoSamples     = errors.New("forest: no training samples")
	ErrShapeMismatch = errors.New("forest: features and labels differ in length")
)

// Params configures Fit.
type Params struct {
	Trees           int
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	MaxFeatures     int // 0 means sqrt(nFeatures)
	Bootstrap       bool
	Seed            uint64
}

// DefaultParams mirrors the resume classifier settings.
func DefaultParams() Params {
	return Params{
		Trees:           100,
		MaxDepth:        20,
		MinSamplesSplit: 2,
		Bootstrap:       true,
		Seed:            42,
	}
}

// Forest is a fitted ensemble. It is immutable after Fit and safe for
// concurrent use.
type Forest struct {
	Classes  int
	Features int
	Trees    []Tree
}

// Fit trains the ensemble on X and class indices y in [0, nClasses).
// Trees are built in parallel; each one draws from its own random source
// derived from the seed and its position, so the result does not depend on
// scheduling.
func Fit(X []ml.Vector, y []int, nClasses, nFeatures int, p Params) (*Forest, error) {
	if len(X) == 0 {
		return nil, ErrNoSamples
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrShapeMismatch, len(X), len(y))
	}
	if nClasses <= 0 || nFeatures <= 0 {
		return nil, fmt.Errorf("forest: invalid shape: %d classes, %d features", nClasses, nFeatures)
	}
	for i, c := range y {
		if c < 0 || c >= nClasses {
			return nil, fmt.Errorf("forest: label %d of sample %d out of range", c, i)
		}
	}
	if p.Trees <= 0 {
		p.Trees = 1
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MaxFeatures <= 0 || p.MaxFeatures > nFeatures {
		p.MaxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(nFeatures)))))
	}

	f := &Forest{Classes: nClasses, Features: nFeatures, Trees: make([]Tree, p.Trees)}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range f.Trees {
		g.Go(func() error {
			b := newBuilder(X, y, nClasses, nFeatures, p, uint64(i))
			f.Trees[i] = b.build()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

// NumClasses implements ml.Classifier.
func (f *Forest) NumClasses() int { return f.Classes }

// NumFeatures implements ml.Classifier.
func (f *Forest) NumFeatures() int { return f.Features }

// votes counts the leaf class of every tree.
func (f *Forest) votes(x ml.Vector) []int {
	v := make([]int, f.Classes)
	for i := range f.Trees {
		v[f.Trees[i].predict(x)]++
	}
	return v
}

// Predict returns the plurality vote across trees, preferring the lowest
// class index on ties.
func (f *Forest) Predict(x ml.Vector) int {
	v := f.votes(x)
	best := 0
	for c := 1; c < len(v); c++ {
		if v[c] > v[best] {
			best = c
		}
	}
	return best
}

// PredictProba returns the fraction of trees voting for each class. Classes
// without votes are reported as 0.
func (f *Forest) PredictProba(x ml.Vector) []float64 {
	v := f.votes(x)
	p := make([]float64, len(v))
	n := float64(len(f.Trees))
	for c, k := range v {
		p[c] = float64(k) / n
	}
	return p
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *Forest) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("forest: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a forest written by MarshalBinary and checks that every
// node references valid children, features and classes.
func Unmarshal(data []byte) (*Forest, error) {
	var f Forest
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return nil, fmt.Errorf("forest: decode: %w", err)
	}
	if f.Classes <= 0 || f.Features <= 0 || len(f.Trees) == 0 {
		return nil, fmt.Errorf("forest: decode: empty model (%d classes, %d features, %d trees)", f.Classes, f.Features, len(f.Trees))
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(f.Classes, f.Features); err != nil {
			return nil, fmt.Errorf("forest: decode: tree %d: %w", i, err)
		}
	}
	return &f, nil
}

var _ ml.Classifier = (*Forest)(nil)
