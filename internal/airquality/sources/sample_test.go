package sources

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

func TestSampleSource_HourlyInclusiveRange(t *testing.T) {
	src := NewSampleSource(42)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	ms, err := src.Fetch(context.Background(), testLoc, from, to)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(ms) != 49 {
		t.Fatalf("Fetch() returned %d measurements, want 49", len(ms))
	}
	if !ms[0].Timestamp.Equal(from) || !ms[len(ms)-1].Timestamp.Equal(to) {
		t.Fatalf("range = [%s, %s], want [%s, %s]", ms[0].Timestamp, ms[len(ms)-1].Timestamp, from, to)
	}
	for _, m := range ms {
		if m.Value < 1 || m.Value > 350 {
			t.Fatalf("value %v outside [1, 350]", m.Value)
		}
		if m.Location != "Centar" || m.Unit != airquality.DefaultUnit {
			t.Fatalf("unexpected metadata %+v", m)
		}
	}
}

func TestSampleSource_Deterministic(t *testing.T) {
	from := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)

	a, err := NewSampleSource(7).Fetch(context.Background(), testLoc, from, to)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	b, err := NewSampleSource(7).Fetch(context.Background(), testLoc, from, to)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different series")
	}
}

func TestSampleSource_WinterWorseThanSummer(t *testing.T) {
	src := NewSampleSource(42)
	ms, err := src.Fetch(context.Background(), testLoc,
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	var winter, summer []float64
	for _, m := range ms {
		switch m.Timestamp.Month() {
		case time.January:
			winter = append(winter, m.Value)
		case time.July:
			summer = append(summer, m.Value)
		}
	}
	if mean(winter) <= mean(summer)+40 {
		t.Fatalf("January mean %.1f not clearly above July mean %.1f", mean(winter), mean(summer))
	}
}

func TestSampleSource_FeedsPreprocessing(t *testing.T) {
	src := NewSampleSource(42)
	ms, err := src.Fetch(context.Background(), testLoc,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	rows, err := airquality.Preprocess(ms)
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	if len(rows) == 0 {
		t.Fatalf("expected at least one feature row")
	}
}

func TestSampleSource_InvertedRange(t *testing.T) {
	_, err := NewSampleSource(42).Fetch(context.Background(), testLoc, testTo, testFrom)
	if !errors.Is(err, airquality.ErrNoMeasurements) {
		t.Fatalf("Fetch() error = %v, want ErrNoMeasurements", err)
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
