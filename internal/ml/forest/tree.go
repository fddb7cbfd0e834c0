package forest

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"resumeclf/internal/ml"
)

const leaf = -1

// Node is one entry of a flattened tree. Internal nodes send x[Feature] <=
// Threshold to Left and everything else to Right; leaves carry Class.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Class     int
}

// Tree is a decision tree stored as a node slice rooted at index 0.
type Tree struct {
	Nodes []Node
}

func (t *Tree) predict(x ml.Vector) int {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leaf {
			return n.Class
		}
		if x.At(n.Feature) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth is the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature == leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

func (t *Tree) validate(classes, features int) error {
	if len(t.Nodes) == 0 {
		return errors.New("no nodes")
	}
	for i, n := range t.Nodes {
		if n.Feature == leaf {
			if n.Class < 0 || n.Class >= classes {
				return fmt.Errorf("node %d: class %d out of range", i, n.Class)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= features {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		// children are appended after their parent, which also rules out cycles
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: bad children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// builder grows one tree with CART and Gini impurity.
type builder struct {
	X         []ml.Vector
	y         []int
	classes   int
	features  int
	p         Params
	rng       *rand.Rand
	nodes     []Node
	featOrder []int
}

func newBuilder(X []ml.Vector, y []int, classes, features int, p Params, treeIndex uint64) *builder {
	order := make([]int, features)
	for i := range order {
		order[i] = i
	}
	return &builder{
		X:         X,
		y:         y,
		classes:   classes,
		features:  features,
		p:         p,
		rng:       rand.New(rand.NewPCG(p.Seed, treeIndex)),
		featOrder: order,
	}
}

func (b *builder) build() Tree {
	n := len(b.X)
	samples := make([]int, n)
	if b.p.Bootstrap {
		for i := range samples {
			samples[i] = b.rng.IntN(n)
		}
	} else {
		for i := range samples {
			samples[i] = i
		}
	}
	b.nodes = b.nodes[:0]
	b.grow(samples, 0)
	return Tree{Nodes: b.nodes}
}

// grow appends the subtree for samples and returns its root index.
func (b *builder) grow(samples []int, depth int) int {
	counts := b.classCounts(samples)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leaf, Class: majority(counts)})

	if len(samples) < b.p.MinSamplesSplit || (b.p.MaxDepth > 0 && depth >= b.p.MaxDepth) || gini(counts, len(samples)) == 0 {
		return idx
	}
	feature, threshold, ok := b.bestSplit(samples, counts)
	if !ok {
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if b.X[s].At(feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

type valued struct {
	v float64
	c int
}

// bestSplit draws features in random order until MaxFeatures non-constant
// ones have been evaluated, and returns the split with the lowest weighted
// child impurity.
func (b *builder) bestSplit(samples []int, counts []int) (int, float64, bool) {
	n := len(samples)
	bestScore := gini(counts, n)
	bestFeature, bestThreshold, found := -1, 0.0, false

	vals := make([]valued, n)
	left := make([]int, b.classes)
	right := make([]int, b.classes)

	evaluated := 0
	for k := 0; k < b.features && evaluated < b.p.MaxFeatures; k++ {
		j := k + b.rng.IntN(b.features-k)
		b.featOrder[k], b.featOrder[j] = b.featOrder[j], b.featOrder[k]
		f := b.featOrder[k]

		constant := true
		for i, s := range samples {
			vals[i] = valued{v: b.X[s].At(f), c: b.y[s]}
			if vals[i].v != vals[0].v {
				constant = false
			}
		}
		if constant {
			continue
		}
		evaluated++

		sort.Slice(vals, func(a, c int) bool { return vals[a].v < vals[c].v })
		clear(left)
		copy(right, counts)
		for i := 0; i < n-1; i++ {
			left[vals[i].c]++
			right[vals[i].c]--
			if vals[i].v == vals[i+1].v {
				continue
			}
			nl, nr := i+1, n-i-1
			score := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if score < bestScore || !found {
				bestScore = score
				bestFeature = f
				bestThreshold = (vals[i].v + vals[i+1].v) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *builder) classCounts(samples []int) []int {
	counts := make([]int, b.classes)
	for _, s := range samples {
		counts[b.y[s]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

// majority prefers the lowest class index on ties.
func majority(counts []int) int {
	best := 0
	for c := 1; c < len(counts); c++ {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
