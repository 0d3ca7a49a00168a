package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

const dateLayout = "2006-01-02"

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// Location the whole pipeline is trained for.
	Location airquality.Location
	// RadiusMeters is only used when the location has coordinates.
	RadiusMeters int

	OpenAQBaseURL string
	OpenAQAPIKey  string
	Parameter     string
	DateFrom      time.Time
	DateTo        time.Time
	HTTPTimeout   time.Duration

	GeocoderAPIKey string

	// FallbackToSample makes the collector synthesize data when the API fails.
	FallbackToSample bool

	RawDataPath       string
	ProcessedDataPath string
	ModelPath         string

	// Optional SQL mirror of raw measurements. Empty DSN disables it.
	RawDBDriver string
	RawDBDSN    string

	TestSize    float64
	RandomState int64
	NEstimators int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	cfg := &AppConfig{}

	cfg.AppEnv = strings.TrimSpace(getenvDefault("APP_ENV", "dev"))
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	cfg.Port = getenvDefault("PORT", "8000")

	loc, err := loadLocation()
	if err != nil {
		return nil, err
	}
	cfg.Location = loc
	cfg.RadiusMeters = getenvInt("RADIUS_METERS", 10000)

	cfg.OpenAQBaseURL = strings.TrimRight(getenvDefault("OPENAQ_BASE_URL", "https://api.openaq.org/v2"), "/")
	cfg.OpenAQAPIKey = os.Getenv("OPENAQ_API_KEY")
	cfg.Parameter = getenvDefault("PARAMETER", "pm25")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.FallbackToSample = getenvBool("COLLECT_FALLBACK_SAMPLE", false)

	cfg.DateFrom, err = time.Parse(dateLayout, getenvDefault("DATE_FROM", "2022-01-01"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATE_FROM: %w", err)
	}
	cfg.DateTo, err = time.Parse(dateLayout, getenvDefault("DATE_TO", "2024-12-31"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATE_TO: %w", err)
	}
	if cfg.DateTo.Before(cfg.DateFrom) {
		return nil, fmt.Errorf("DATE_TO %s is before DATE_FROM %s",
			cfg.DateTo.Format(dateLayout), cfg.DateFrom.Format(dateLayout))
	}

	cfg.HTTPTimeout, err = time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	cfg.RawDataPath = getenvDefault("RAW_DATA_PATH", "data/raw/skopje_pm25_raw.csv")
	cfg.ProcessedDataPath = getenvDefault("PROCESSED_DATA_PATH", "data/processed/skopje_pm25_features.csv")
	cfg.ModelPath = getenvDefault("MODEL_PATH", "models/model.json")

	cfg.RawDBDriver = getenvDefault("RAW_DB_DRIVER", "sqlite3")
	switch cfg.RawDBDriver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("invalid RAW_DB_DRIVER %q (allowed: sqlite3, postgres)", cfg.RawDBDriver)
	}
	cfg.RawDBDSN = os.Getenv("RAW_DB_DSN")

	cfg.TestSize, err = strconv.ParseFloat(getenvDefault("TEST_SIZE", "0.2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_SIZE: %w", err)
	}
	if cfg.TestSize <= 0 || cfg.TestSize >= 1 {
		return nil, fmt.Errorf("TEST_SIZE must be in (0, 1), got %v", cfg.TestSize)
	}
	cfg.RandomState = int64(getenvInt("RANDOM_STATE", 42))
	cfg.NEstimators = getenvInt("N_ESTIMATORS", 100)
	if cfg.NEstimators <= 0 {
		return nil, fmt.Errorf("N_ESTIMATORS must be positive, got %d", cfg.NEstimators)
	}

	return cfg, nil
}

func loadLocation() (airquality.Location, error) {
	loc := airquality.Location{
		City:    getenvDefault("CITY", "Skopje"),
		Country: getenvDefault("COUNTRY", "MK"),
	}

	latStr := os.Getenv("LATITUDE")
	lonStr := os.Getenv("LONGITUDE")
	if (latStr == "") != (lonStr == "") {
		return loc, fmt.Errorf("LATITUDE and LONGITUDE must be set together")
	}
	if latStr == "" {
		return loc, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return loc, fmt.Errorf("invalid LATITUDE: %w", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return loc, fmt.Errorf("invalid LONGITUDE: %w", err)
	}
	loc.Lat = &lat
	loc.Lon = &lon
	return loc, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
