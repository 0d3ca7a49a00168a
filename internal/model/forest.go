package model

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyDataset is returned when there is nothing to fit or score.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrFeatureCount is returned when a feature vector has the wrong width.
	ErrFeatureCount = errors.New("wrong number of features")
)

// Params configures a random forest regressor.
type Params struct {
	NEstimators     int   `json:"n_estimators"`
	Seed            int64 `json:"random_state"`
	MaxDepth        int   `json:"max_depth"`    // 0 = unlimited
	MaxFeatures     int   `json:"max_features"` // 0 = all features
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Bootstrap       bool  `json:"bootstrap"`
}

// DefaultParams returns a 100-tree forest with fully grown, bootstrapped trees.
func DefaultParams() Params {
	return Params{
		NEstimators:     100,
		Seed:            42,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
}

func (p Params) validate() error {
	switch {
	case p.NEstimators <= 0:
		return fmt.Errorf("n_estimators must be positive, got %d", p.NEstimators)
	case p.MinSamplesSplit < 2:
		return fmt.Errorf("min_samples_split must be >= 2, got %d", p.MinSamplesSplit)
	case p.MinSamplesLeaf < 1:
		return fmt.Errorf("min_samples_leaf must be >= 1, got %d", p.MinSamplesLeaf)
	case p.MaxDepth < 0 || p.MaxFeatures < 0:
		return fmt.Errorf("max_depth and max_features must not be negative")
	}
	return nil
}

// Forest is a fitted random forest regressor. Its prediction is the mean of its trees.
type Forest struct {
	NFeatures   int       `json:"n_features"`
	Trees       []Tree    `json:"trees"`
	Importances []float64 `json:"feature_importances"`
}

// Fit trains a forest on x (rows of features) and y. Trees are grown concurrently;
// each gets its own seed derived from p.Seed, so the result does not depend on scheduling.
func Fit(ctx context.Context, x [][]float64, y []float64, p Params) (*Forest, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("x has %d rows but y has %d", len(x), len(y))
	}
	nf := len(x[0])
	if nf == 0 {
		return nil, fmt.Errorf("%w: rows have no features", ErrFeatureCount)
	}
	for i, row := range x {
		if len(row) != nf {
			return nil, fmt.Errorf("%w: row %d has %d, want %d", ErrFeatureCount, i, len(row), nf)
		}
	}

	master := rand.New(rand.NewSource(p.Seed))
	seeds := make([]int64, p.NEstimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]Tree, p.NEstimators)
	treeImportances := make([][]float64, p.NEstimators)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := range trees {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[t]))

			samples := make([]int, len(x))
			for i := range samples {
				if p.Bootstrap {
					samples[i] = rng.Intn(len(x))
				} else {
					samples[i] = i
				}
			}

			b := newTreeBuilder(x, y, p, rng)
			trees[t] = b.fit(samples)
			treeImportances[t] = normalize(b.importances)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	importances := make([]float64, nf)
	for _, imp := range treeImportances {
		for i, v := range imp {
			importances[i] += v
		}
	}

	return &Forest{
		NFeatures:   nf,
		Trees:       trees,
		Importances: normalize(importances),
	}, nil
}

// Predict returns the forest's estimate for a single feature vector.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.NFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(x), f.NFeatures)
	}
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("forest has no trees")
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// PredictBatch predicts every row of x.
func (f *Forest) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// validate checks that every node reference stays inside its tree.
func (f *Forest) validate() error {
	if f.NFeatures <= 0 {
		return fmt.Errorf("forest has no features")
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for t, tree := range f.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", t)
		}
		for i, n := range tree.Nodes {
			if n.Feature < 0 {
				continue
			}
			if n.Feature >= f.NFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", t, i, n.Feature)
			}
			if n.Left <= i || n.Right <= i || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: invalid children (%d, %d)", t, i, n.Left, n.Right)
			}
		}
	}
	return nil
}

func normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	var total float64
	for _, x := range v {
		total += x
	}
	if total <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / total
	}
	return out
}
