package model

import (
	"context"
	"fmt"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

// Train splits rows chronologically, fits a forest on the older part and scores it on both.
func Train(ctx context.Context, rows []airquality.FeatureRow, testSize float64, p Params) (*Artifact, error) {
	train, test, err := ChronologicalSplit(rows, testSize)
	if err != nil {
		return nil, err
	}

	xTrain, yTrain := Matrix(train)
	xTest, yTest := Matrix(test)

	forest, err := Fit(ctx, xTrain, yTrain, p)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	var eval Evaluation
	if eval.Train, err = evaluate(forest, xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("score train: %w", err)
	}
	if eval.Test, err = evaluate(forest, xTest, yTest); err != nil {
		return nil, fmt.Errorf("score test: %w", err)
	}
	return NewArtifact(forest, p, eval), nil
}

func evaluate(f *Forest, x [][]float64, y []float64) (Metrics, error) {
	pred, err := f.PredictBatch(x)
	if err != nil {
		return Metrics{}, err
	}
	return Score(y, pred)
}
