package model

import (
	"errors"
	"fmt"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

// ErrNotChronological is returned when rows are not strictly ordered by date.
var ErrNotChronological = errors.New("rows are not in chronological order")

// ChronologicalSplit keeps the first int(n*(1-testSize)) rows for training and the rest for
// testing. Rows are never shuffled, so every test row is later than every training row.
func ChronologicalSplit(rows []airquality.FeatureRow, testSize float64) (train, test []airquality.FeatureRow, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i].Date.After(rows[i-1].Date) {
			return nil, nil, fmt.Errorf("%w: row %d (%s) follows %s", ErrNotChronological, i,
				rows[i].Date.Format("2006-01-02"), rows[i-1].Date.Format("2006-01-02"))
		}
	}

	idx := int(float64(len(rows)) * (1 - testSize))
	if idx == 0 || idx == len(rows) {
		return nil, nil, fmt.Errorf("%w: %d rows cannot be split with test size %v", ErrEmptyDataset, len(rows), testSize)
	}
	return rows[:idx], rows[idx:], nil
}

// Matrix unpacks rows into the feature matrix and label vector the forest consumes.
func Matrix(rows []airquality.FeatureRow) ([][]float64, []float64) {
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		x[i] = r.Features()
		y[i] = r.PM25NextDay
	}
	return x, y
}
