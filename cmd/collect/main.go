package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/i474232898/air-quality-predict/internal/airquality"
	"github.com/i474232898/air-quality-predict/internal/airquality/sources"
	"github.com/i474232898/air-quality-predict/internal/config"
	"github.com/i474232898/air-quality-predict/internal/logging"
	"github.com/i474232898/air-quality-predict/internal/scheduler"
	"github.com/i474232898/air-quality-predict/internal/store"
)

const sampleSeed = 42

func main() {
	sample := flag.Bool("sample", false, "synthesize a sample series instead of calling the OpenAQ API")
	every := flag.Duration("every", 0, "keep running and re-collect on this interval (e.g. 24h)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg, "collect")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks := []airquality.Sink{store.RawFile{Path: cfg.RawDataPath}}
	if cfg.RawDBDSN != "" {
		db, err := store.OpenSQL(ctx, cfg.RawDBDriver, cfg.RawDBDSN)
		if err != nil {
			logger.Error("failed to open measurement database", "driver", cfg.RawDBDriver, "err", err)
			os.Exit(1)
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	var opts []airquality.CollectorOption
	opts = append(opts, airquality.WithLogger(logger))

	var source airquality.Source
	if *sample {
		source = sources.NewSampleSource(sampleSeed)
	} else {
		// Shared HTTP client for outbound API calls.
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		source = sources.NewOpenAQSource(httpClient, sources.OpenAQConfig{
			BaseURL:      cfg.OpenAQBaseURL,
			APIKey:       cfg.OpenAQAPIKey,
			Parameter:    cfg.Parameter,
			RadiusMeters: cfg.RadiusMeters,
		}, logger)

		if cfg.GeocoderAPIKey != "" && !cfg.Location.HasCoordinates() {
			source = sources.NewGeocodedSource(source, sources.NewGoogleResolver(cfg.GeocoderAPIKey), logger)
		}
		if cfg.FallbackToSample {
			opts = append(opts, airquality.WithFallback(sources.NewSampleSource(sampleSeed)))
		}
	}

	collector := airquality.NewCollector(source, sinks, opts...)

	if *every <= 0 {
		n, err := collector.Collect(ctx, cfg.Location, cfg.DateFrom, cfg.DateTo)
		if err != nil {
			logger.Error("collection failed", "err", err)
			os.Exit(1)
		}
		logger.Info("wrote raw measurements", "count", n, "path", cfg.RawDataPath)
		return
	}

	// Scheduled runs keep the configured start and extend the window to the current day.
	sched := scheduler.New(*every, *every, func(ctx context.Context) error {
		to := time.Now().UTC().Truncate(24 * time.Hour)
		if to.Before(cfg.DateFrom) {
			to = cfg.DateFrom
		}
		_, err := collector.Collect(ctx, cfg.Location, cfg.DateFrom, to)
		return err
	}, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	<-ctx.Done()
	logger.Info("shutting down collector")
}
