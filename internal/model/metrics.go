package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics are regression scores for one dataset.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
	Rows int     `json:"rows"`
}

// Score compares predictions against the observed values.
func Score(observed, predicted []float64) (Metrics, error) {
	if len(observed) == 0 {
		return Metrics{}, ErrEmptyDataset
	}
	if len(observed) != len(predicted) {
		return Metrics{}, fmt.Errorf("observed has %d values but predicted has %d", len(observed), len(predicted))
	}

	n := float64(len(observed))
	return Metrics{
		RMSE: floats.Distance(observed, predicted, 2) / math.Sqrt(n),
		MAE:  floats.Distance(observed, predicted, 1) / n,
		R2:   rSquared(observed, predicted),
		Rows: len(observed),
	}, nil
}

// rSquared is 1 for a perfect fit and 0 otherwise when the observations have
// zero variance, so the score stays finite.
func rSquared(observed, predicted []float64) float64 {
	mean := stat.Mean(observed, nil)
	var ssTot float64
	for _, v := range observed {
		d := v - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		if floats.Equal(observed, predicted) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(predicted, observed, nil)
}
