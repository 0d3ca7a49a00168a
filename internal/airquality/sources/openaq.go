package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

// pageLimit is the page size requested from the measurements endpoint.
const pageLimit = 10000

// OpenAQSource implements the airquality.Source interface for the OpenAQ measurements API.
type OpenAQSource struct {
	name         string
	baseURL      string
	parameter    string
	radiusMeters int
	pageLimit    int
	httpCfg      HTTPClientConfig
	circuit      *gobreaker.CircuitBreaker
	logger       *slog.Logger
}

// OpenAQConfig configures an OpenAQSource.
type OpenAQConfig struct {
	BaseURL      string
	APIKey       string
	Parameter    string
	RadiusMeters int
}

func NewOpenAQSource(client *http.Client, cfg OpenAQConfig, logger *slog.Logger) *OpenAQSource {
	if logger == nil {
		logger = slog.Default()
	}
	headers := map[string]string{"Accept": "application/json"}
	if cfg.APIKey != "" {
		headers["X-API-Key"] = cfg.APIKey
	}
	parameter := cfg.Parameter
	if parameter == "" {
		parameter = "pm25"
	}

	return &OpenAQSource{
		name:         "openaq",
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		parameter:    parameter,
		radiusMeters: cfg.RadiusMeters,
		pageLimit:    pageLimit,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Headers: headers,
		},
		circuit: newBreaker("openaq"),
		logger:  logger,
	}
}

func (p *OpenAQSource) Name() string {
	return p.name
}

type openAQPage struct {
	Meta struct {
		// Found is a number, or a string such as ">10000" when the API only knows a lower bound.
		Found json.RawMessage `json:"found"`
	} `json:"meta"`
	Results []openAQResult `json:"results"`
}

type openAQResult struct {
	Date struct {
		UTC string `json:"utc"`
	} `json:"date"`
	Value    float64 `json:"value"`
	Location string  `json:"location"`
	Unit     string  `json:"unit"`
}

// Fetch pages through all measurements for loc between from and to.
func (p *OpenAQSource) Fetch(ctx context.Context, loc airquality.Location, from, to time.Time) ([]airquality.Measurement, error) {
	var all []airquality.Measurement

	for page := 1; ; page++ {
		body, err := p.fetchPage(ctx, loc, from, to, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if len(body.Results) == 0 {
			break
		}

		for _, r := range body.Results {
			m, err := r.toMeasurement()
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", page, err)
			}
			all = append(all, m)
		}
		p.logger.Info("fetched page", "page", page, "records", len(body.Results), "total", len(all))

		if found, ok := parseFound(body.Meta.Found); ok && len(all) >= found {
			break
		}
	}

	if len(all) == 0 {
		return nil, airquality.ErrNoMeasurements
	}
	return all, nil
}

func (p *OpenAQSource) fetchPage(ctx context.Context, loc airquality.Location, from, to time.Time, page int) (*openAQPage, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		if loc.HasCoordinates() {
			values.Set("coordinates", fmt.Sprintf("%.4f,%.4f", *loc.Lat, *loc.Lon))
			if p.radiusMeters > 0 {
				values.Set("radius", strconv.Itoa(p.radiusMeters))
			}
		} else {
			values.Set("city", loc.City)
			if loc.Country != "" {
				values.Set("country", loc.Country)
			}
		}
		values.Set("parameter", p.parameter)
		values.Set("date_from", from.Format(time.DateOnly))
		values.Set("date_to", to.Format(time.DateOnly))
		values.Set("limit", strconv.Itoa(p.pageLimit))
		values.Set("page", strconv.Itoa(page))
		values.Set("order_by", "datetime")

		u := fmt.Sprintf("%s/measurements?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload openAQPage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &payload, nil
}

func (r openAQResult) toMeasurement() (airquality.Measurement, error) {
	ts, err := time.Parse(time.RFC3339, r.Date.UTC)
	if err != nil {
		return airquality.Measurement{}, fmt.Errorf("invalid measurement timestamp %q: %w", r.Date.UTC, err)
	}

	location := r.Location
	if location == "" {
		location = "unknown"
	}
	unit := r.Unit
	if unit == "" {
		unit = airquality.DefaultUnit
	}

	return airquality.Measurement{
		Timestamp: ts.UTC(),
		Value:     r.Value,
		Location:  location,
		Unit:      unit,
	}, nil
}

// parseFound reads meta.found; ok is false when it is absent or not an exact count.
func parseFound(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}
