package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

// Resolver looks up coordinates for a city/country pair.
type Resolver interface {
	Resolve(loc airquality.Location) (lat, lon float64, err error)
}

// GoogleResolver resolves coordinates through the Google Geocoding API.
type GoogleResolver struct {
	apiKey string
}

func NewGoogleResolver(apiKey string) *GoogleResolver {
	return &GoogleResolver{apiKey: apiKey}
}

// geocoderMu guards geocoder.ApiKey, which the library keeps in a package variable.
var geocoderMu sync.Mutex

func (g *GoogleResolver) Resolve(loc airquality.Location) (float64, float64, error) {
	geocoderMu.Lock()
	defer geocoderMu.Unlock()

	geocoder.ApiKey = g.apiKey
	pos, err := geocoder.Geocoding(geocoder.Address{
		City:    loc.City,
		Country: loc.Country,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s: %w", loc.Key(), err)
	}
	return pos.Latitude, pos.Longitude, nil
}

// GeocodedSource fills in missing coordinates before delegating to the wrapped source,
// so coordinate-based queries can be used when only a city name is configured.
type GeocodedSource struct {
	next     airquality.Source
	resolver Resolver
	logger   *slog.Logger
}

func NewGeocodedSource(next airquality.Source, resolver Resolver, logger *slog.Logger) *GeocodedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeocodedSource{next: next, resolver: resolver, logger: logger}
}

func (g *GeocodedSource) Name() string {
	return g.next.Name()
}

func (g *GeocodedSource) Fetch(ctx context.Context, loc airquality.Location, from, to time.Time) ([]airquality.Measurement, error) {
	if !loc.HasCoordinates() {
		lat, lon, err := g.resolver.Resolve(loc)
		if err != nil {
			return nil, err
		}
		loc.Lat, loc.Lon = &lat, &lon
		g.logger.Info("resolved coordinates", "location", loc.Key(), "lat", lat, "lon", lon)
	}
	return g.next.Fetch(ctx, loc, from, to)
}
