package pipeline

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

var ErrStratification = errors.New("pipeline: stratified split needs at least 2 samples per category")

// StratificationError lists the categories with fewer than two samples.
type StratificationError struct {
	Labels []string
}

func (e *StratificationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrStratification, strings.Join(e.Labels, ", "))
}

func (e *StratificationError) Unwrap() error { return ErrStratification }

// stratifiedSplit returns train and test indices holding the same share of
// every class. Each class contributes round(n*testSize) test samples, but at
// least one and never all of them.
func stratifiedSplit(y []int, categories []string, testSize float64, seed uint64) ([]int, []int, error) {
	byClass := make([][]int, len(categories))
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}

	var small []string
	for c, idx := range byClass {
		if len(idx) < 2 {
			small = append(small, categories[c])
		}
	}
	if len(small) > 0 {
		return nil, nil, &StratificationError{Labels: small}
	}

	rng := rand.New(rand.NewPCG(seed, 1))
	var train, test []int
	for _, idx := range byClass {
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		n := len(idx)
		k := int(math.Round(float64(n) * testSize))
		k = min(max(k, 1), n-1)
		test = append(test, idx[:k]...)
		train = append(train, idx[k:]...)
	}
	return train, test, nil
}
