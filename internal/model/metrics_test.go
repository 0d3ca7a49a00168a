package model

import (
	"errors"
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	m, err := Score([]float64{1, 2, 3}, []float64{1, 2, 5})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	// Residuals 0, 0, -2; mean observation 2 gives SStot = 2.
	want := Metrics{RMSE: math.Sqrt(4.0 / 3), MAE: 2.0 / 3, R2: -1}
	if m.Rows != 3 {
		t.Fatalf("rows = %d, want 3", m.Rows)
	}
	for name, pair := range map[string][2]float64{
		"rmse": {m.RMSE, want.RMSE},
		"mae":  {m.MAE, want.MAE},
		"r2":   {m.R2, want.R2},
	} {
		if math.Abs(pair[0]-pair[1]) > 1e-9 {
			t.Fatalf("%s = %v, want %v", name, pair[0], pair[1])
		}
	}
}

func TestScore_Perfect(t *testing.T) {
	obs := []float64{3, 1, 4, 1, 5}
	m, err := Score(obs, obs)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if m.RMSE != 0 || m.MAE != 0 || m.R2 != 1 {
		t.Fatalf("Score() = %+v, want zero error and R2 = 1", m)
	}
}

func TestScore_Errors(t *testing.T) {
	if _, err := Score(nil, nil); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("Score(nil) error = %v, want ErrEmptyDataset", err)
	}
	if _, err := Score([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("expected an error for mismatched lengths")
	}
}

func TestScore_ConstantObservations(t *testing.T) {
	tests := []struct {
		name      string
		observed  []float64
		predicted []float64
		wantR2    float64
	}{
		{name: "single row miss", observed: []float64{30}, predicted: []float64{42}, wantR2: 0},
		{name: "single row hit", observed: []float64{30}, predicted: []float64{30}, wantR2: 1},
		{name: "constant miss", observed: []float64{30, 30, 30, 30}, predicted: []float64{29, 31, 30, 35}, wantR2: 0},
		{name: "constant hit", observed: []float64{30, 30, 30}, predicted: []float64{30, 30, 30}, wantR2: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Score(tt.observed, tt.predicted)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if m.R2 != tt.wantR2 {
				t.Fatalf("R2 = %v, want %v", m.R2, tt.wantR2)
			}
		})
	}
}
