package airquality

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubSource struct {
	name string
	ms   []Measurement
	err  error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(context.Context, Location, time.Time, time.Time) ([]Measurement, error) {
	return s.ms, s.err
}

type recordingSink struct {
	saved []Measurement
	err   error
}

func (s *recordingSink) SaveMeasurements(_ context.Context, ms []Measurement) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, ms...)
	return nil
}

var testLoc = Location{City: "Skopje", Country: "MK"}

func TestCollector_WritesSortedToAllSinks(t *testing.T) {
	src := stubSource{name: "stub", ms: []Measurement{
		{Timestamp: day(2), Value: 3},
		{Timestamp: day(0), Value: 1},
		{Timestamp: day(1), Value: 2},
	}}
	a, b := &recordingSink{}, &recordingSink{}

	n, err := NewCollector(src, []Sink{a, b}).Collect(context.Background(), testLoc, day(0), day(2))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("Collect() = %d, want 3", n)
	}
	for _, sink := range []*recordingSink{a, b} {
		if len(sink.saved) != 3 {
			t.Fatalf("sink got %d measurements, want 3", len(sink.saved))
		}
		for i, m := range sink.saved {
			if m.Value != float64(i+1) {
				t.Fatalf("measurement %d value = %v, want %v", i, m.Value, i+1)
			}
		}
	}
}

func TestCollector_SourceErrorIsFatal(t *testing.T) {
	boom := errors.New("connection refused")
	sink := &recordingSink{}

	_, err := NewCollector(stubSource{name: "openaq", err: boom}, []Sink{sink}).
		Collect(context.Background(), testLoc, day(0), day(1))
	if !errors.Is(err, boom) {
		t.Fatalf("Collect() error = %v, want %v", err, boom)
	}
	if len(sink.saved) != 0 {
		t.Fatalf("sink should not be written on failure")
	}
}

func TestCollector_EmptyResult(t *testing.T) {
	_, err := NewCollector(stubSource{name: "openaq"}, []Sink{&recordingSink{}}).
		Collect(context.Background(), testLoc, day(0), day(1))
	if !errors.Is(err, ErrNoMeasurements) {
		t.Fatalf("Collect() error = %v, want ErrNoMeasurements", err)
	}
}

func TestCollector_Fallback(t *testing.T) {
	primary := stubSource{name: "openaq", err: errors.New("503")}
	fallback := stubSource{name: "sample", ms: []Measurement{{Timestamp: day(0), Value: 7}}}
	sink := &recordingSink{}

	n, err := NewCollector(primary, []Sink{sink}, WithFallback(fallback)).
		Collect(context.Background(), testLoc, day(0), day(1))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if n != 1 || sink.saved[0].Value != 7 {
		t.Fatalf("expected fallback measurement to be saved, got %+v", sink.saved)
	}
}

func TestCollector_SinkError(t *testing.T) {
	src := stubSource{name: "stub", ms: []Measurement{{Timestamp: day(0), Value: 1}}}
	diskFull := errors.New("disk full")

	_, err := NewCollector(src, []Sink{&recordingSink{err: diskFull}}).
		Collect(context.Background(), testLoc, day(0), day(1))
	if !errors.Is(err, diskFull) {
		t.Fatalf("Collect() error = %v, want %v", err, diskFull)
	}
}
