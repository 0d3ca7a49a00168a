package airquality

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoMeasurements is returned when a source yields no readings.
	ErrNoMeasurements = errors.New("no measurements returned")
	// ErrInsufficientHistory is returned when preprocessing cannot produce a single feature row.
	ErrInsufficientHistory = errors.New("not enough daily history to build features")
)

// Source abstracts a raw measurement source (e.g. OpenAQ, the synthetic generator).
type Source interface {
	Name() string
	Fetch(ctx context.Context, loc Location, from, to time.Time) ([]Measurement, error)
}

// Sink persists raw measurements. The CSV file and the SQL store both satisfy it.
type Sink interface {
	SaveMeasurements(ctx context.Context, ms []Measurement) error
}
