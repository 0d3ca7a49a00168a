package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

var (
	testLoc  = airquality.Location{City: "Skopje", Country: "MK"}
	testFrom = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testTo   = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func pageJSON(found string, start, count int) string {
	var results []string
	for i := 0; i < count; i++ {
		ts := testFrom.Add(time.Duration(start+i) * time.Hour).Format(time.RFC3339)
		results = append(results, fmt.Sprintf(
			`{"date":{"utc":%q,"local":%q},"value":%d.5,"location":"Centar","unit":"µg/m³"}`,
			ts, ts, start+i))
	}
	return fmt.Sprintf(`{"meta":{"found":%s},"results":[%s]}`, found, strings.Join(results, ","))
}

func newTestSource(t *testing.T, h http.HandlerFunc) *OpenAQSource {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	src := NewOpenAQSource(ts.Client(), OpenAQConfig{BaseURL: ts.URL, APIKey: "secret"}, nil)
	src.pageLimit = 2
	return src
}

func TestOpenAQ_PaginatesUntilFound(t *testing.T) {
	var calls atomic.Int32
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if r.URL.Path != "/measurements" {
			t.Errorf("path = %q, want /measurements", r.URL.Path)
		}
		if q.Get("city") != "Skopje" || q.Get("country") != "MK" || q.Get("parameter") != "pm25" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("date_from") != "2024-01-01" || q.Get("date_to") != "2024-01-31" {
			t.Errorf("unexpected date range %v", q)
		}
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("missing api key header")
		}

		page, _ := strconv.Atoi(q.Get("page"))
		switch page {
		case 1:
			fmt.Fprint(w, pageJSON("3", 0, 2))
		case 2:
			fmt.Fprint(w, pageJSON("3", 2, 1))
		default:
			t.Errorf("unexpected page %d", page)
			fmt.Fprint(w, pageJSON("3", 0, 0))
		}
	})

	ms, err := src.Fetch(context.Background(), testLoc, testFrom, testTo)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(ms) != 3 {
		t.Fatalf("Fetch() returned %d measurements, want 3", len(ms))
	}
	if calls.Load() != 2 {
		t.Fatalf("server called %d times, want 2", calls.Load())
	}
	if ms[2].Value != 2.5 || ms[2].Location != "Centar" || !ms[2].Timestamp.Equal(testFrom.Add(2*time.Hour)) {
		t.Fatalf("unexpected measurement %+v", ms[2])
	}
}

func TestOpenAQ_NonNumericFoundPagesUntilEmpty(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page <= 2 {
			fmt.Fprint(w, pageJSON(`">2"`, (page-1)*2, 2))
			return
		}
		fmt.Fprint(w, pageJSON(`">2"`, 0, 0))
	})

	ms, err := src.Fetch(context.Background(), testLoc, testFrom, testTo)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(ms) != 4 {
		t.Fatalf("Fetch() returned %d measurements, want 4", len(ms))
	}
}

func TestOpenAQ_UsesCoordinatesWhenKnown(t *testing.T) {
	lat, lon := 41.9981, 21.4254
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("coordinates") != "41.9981,21.4254" {
			t.Errorf("coordinates = %q", q.Get("coordinates"))
		}
		if q.Has("city") {
			t.Errorf("city should not be sent with coordinates")
		}
		fmt.Fprint(w, pageJSON("1", 0, 1))
	})
	src.radiusMeters = 5000

	loc := testLoc
	loc.Lat, loc.Lon = &lat, &lon
	if _, err := src.Fetch(context.Background(), loc, testFrom, testTo); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
}

func TestOpenAQ_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: errServerError,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantErr: errRateLimited,
		},
		{
			name: "client error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"detail":"bad city"}`, http.StatusUnprocessableEntity)
			},
			wantErr: errUnexpected,
		},
		{
			name: "empty",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"meta":{"found":0},"results":[]}`)
			},
			wantErr: airquality.ErrNoMeasurements,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, tt.handler)
			_, err := src.Fetch(context.Background(), testLoc, testFrom, testTo)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenAQ_MalformedBody(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [`)
	})
	if _, err := src.Fetch(context.Background(), testLoc, testFrom, testTo); err == nil {
		t.Fatalf("Fetch() error = nil, want decode error")
	}
}

func TestOpenAQ_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		_, _ = src.Fetch(context.Background(), testLoc, testFrom, testTo)
	}
	_, err := src.Fetch(context.Background(), testLoc, testFrom, testTo)
	if !errors.Is(err, errCircuitOpen) {
		t.Fatalf("Fetch() error = %v, want circuit open", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("server called %d times, want 3", calls.Load())
	}
}

func TestParseFound(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{raw: `12`, want: 12, wantOK: true},
		{raw: `"42"`, want: 42, wantOK: true},
		{raw: `">10000"`, wantOK: false},
		{raw: `null`, wantOK: false},
		{raw: ``, wantOK: false},
	}
	for _, tt := range tests {
		got, ok := parseFound([]byte(tt.raw))
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseFound(%s) = (%d, %v), want (%d, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
