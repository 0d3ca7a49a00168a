package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

type fixedResolver struct {
	lat, lon float64
	err      error
	calls    int
}

func (f *fixedResolver) Resolve(airquality.Location) (float64, float64, error) {
	f.calls++
	return f.lat, f.lon, f.err
}

type captureSource struct {
	got airquality.Location
}

func (c *captureSource) Name() string { return "capture" }

func (c *captureSource) Fetch(_ context.Context, loc airquality.Location, _, _ time.Time) ([]airquality.Measurement, error) {
	c.got = loc
	return []airquality.Measurement{{Value: 1}}, nil
}

func TestGeocodedSource_FillsCoordinates(t *testing.T) {
	next := &captureSource{}
	res := &fixedResolver{lat: 41.99, lon: 21.43}

	src := NewGeocodedSource(next, res, nil)
	if _, err := src.Fetch(context.Background(), testLoc, testFrom, testTo); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !next.got.HasCoordinates() || *next.got.Lat != 41.99 || *next.got.Lon != 21.43 {
		t.Fatalf("wrapped source got %+v, want resolved coordinates", next.got)
	}
	if src.Name() != "capture" {
		t.Errorf("Name() = %q, want wrapped name", src.Name())
	}
}

func TestGeocodedSource_KeepsConfiguredCoordinates(t *testing.T) {
	next := &captureSource{}
	res := &fixedResolver{}
	lat, lon := 1.0, 2.0
	loc := testLoc
	loc.Lat, loc.Lon = &lat, &lon

	if _, err := NewGeocodedSource(next, res, nil).Fetch(context.Background(), loc, testFrom, testTo); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.calls != 0 {
		t.Fatalf("resolver called %d times, want 0", res.calls)
	}
}

func TestGeocodedSource_ResolveError(t *testing.T) {
	boom := errors.New("REQUEST_DENIED")
	src := NewGeocodedSource(&captureSource{}, &fixedResolver{err: boom}, nil)

	if _, err := src.Fetch(context.Background(), testLoc, testFrom, testTo); !errors.Is(err, boom) {
		t.Fatalf("Fetch() error = %v, want %v", err, boom)
	}
}
