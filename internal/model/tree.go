package model

import (
	"math/rand"
	"sort"
)

// Node is one node of a fitted regression tree. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a fitted CART regression tree stored as a flat node slice; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks x down to a leaf. Samples equal to a threshold go left.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// treeBuilder grows one tree with the squared-error criterion.
type treeBuilder struct {
	x      [][]float64
	y      []float64
	params Params
	rng    *rand.Rand

	nodes       []Node
	importances []float64
	features    []int
	scratch     []int
}

func newTreeBuilder(x [][]float64, y []float64, params Params, rng *rand.Rand) *treeBuilder {
	nf := len(x[0])
	features := make([]int, nf)
	for i := range features {
		features[i] = i
	}
	return &treeBuilder{
		x:           x,
		y:           y,
		params:      params,
		rng:         rng,
		importances: make([]float64, nf),
		features:    features,
		scratch:     make([]int, len(x)),
	}
}

// fit grows the tree over the given sample indices (duplicates allowed).
func (b *treeBuilder) fit(samples []int) Tree {
	idx := make([]int, len(samples))
	copy(idx, samples)
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	id := len(b.nodes)
	mean, sse := b.meanSSE(idx)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: mean})

	if len(idx) < b.params.MinSamplesSplit || len(idx) < 2*b.params.MinSamplesLeaf {
		return id
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return id
	}
	if sse <= 1e-12 {
		return id
	}

	feature, threshold, childSSE, ok := b.bestSplit(idx)
	if !ok {
		return id
	}

	// Partition in place: left half keeps x <= threshold.
	lo, hi := 0, len(idx)-1
	for lo <= hi {
		if b.x[idx[lo]][feature] <= threshold {
			lo++
		} else {
			idx[lo], idx[hi] = idx[hi], idx[lo]
			hi--
		}
	}
	if lo == 0 || lo == len(idx) {
		return id
	}

	b.importances[feature] += nonNeg(sse - childSSE)

	left := b.build(idx[:lo], depth+1)
	right := b.build(idx[lo:], depth+1)

	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = left
	b.nodes[id].Right = right
	return id
}

func (b *treeBuilder) meanSSE(idx []int) (float64, float64) {
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	mean := sum / float64(len(idx))

	var sse float64
	for _, i := range idx {
		d := b.y[i] - mean
		sse += d * d
	}
	return mean, sse
}

// bestSplit scans every candidate threshold of the considered features and
// returns the one minimizing the summed squared error of both children.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold, childSSE float64, ok bool) {
	n := len(idx)
	minLeaf := b.params.MinSamplesLeaf

	candidates := b.features
	if mf := b.params.MaxFeatures; mf > 0 && mf < len(b.features) {
		b.rng.Shuffle(len(b.features), func(i, j int) {
			b.features[i], b.features[j] = b.features[j], b.features[i]
		})
		candidates = b.features[:mf]
	}

	sorted := b.scratch[:n]
	best := 0.0

	for _, f := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		var totalSum, totalSq float64
		for _, i := range sorted {
			totalSum += b.y[i]
			totalSq += b.y[i] * b.y[i]
		}

		var leftSum, leftSq float64
		for k := 1; k < n; k++ {
			yi := b.y[sorted[k-1]]
			leftSum += yi
			leftSq += yi * yi

			lo, hi := b.x[sorted[k-1]][f], b.x[sorted[k]][f]
			if lo == hi {
				continue
			}
			if k < minLeaf || n-k < minLeaf {
				continue
			}

			nl, nr := float64(k), float64(n-k)
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			sse := nonNeg(leftSq-leftSum*leftSum/nl) + nonNeg(rightSq-rightSum*rightSum/nr)

			if !ok || sse < best {
				thr := lo + (hi-lo)/2
				if thr >= hi {
					thr = lo
				}
				feature, threshold, best, ok = f, thr, sse, true
			}
		}
	}
	return feature, threshold, best, ok
}

func nonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
