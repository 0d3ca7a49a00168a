package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/i474232898/air-quality-predict/internal/airquality"
	"github.com/i474232898/air-quality-predict/internal/config"
	"github.com/i474232898/air-quality-predict/internal/logging"
	"github.com/i474232898/air-quality-predict/internal/store"
)

func main() {
	fromDB := flag.Bool("from-db", false, "read raw measurements from RAW_DB_DSN instead of the raw CSV")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg, "preprocess")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ms []airquality.Measurement
	if *fromDB {
		if cfg.RawDBDSN == "" {
			logger.Error("-from-db requires RAW_DB_DSN")
			os.Exit(1)
		}
		db, err := store.OpenSQL(ctx, cfg.RawDBDriver, cfg.RawDBDSN)
		if err != nil {
			logger.Error("failed to open measurement database", "driver", cfg.RawDBDriver, "err", err)
			os.Exit(1)
		}
		ms, err = db.LoadMeasurements(ctx)
		_ = db.Close()
		if err != nil {
			logger.Error("failed to load raw measurements; run collect first", "err", err)
			os.Exit(1)
		}
	} else {
		ms, err = store.RawFile{Path: cfg.RawDataPath}.LoadMeasurements(ctx)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				logger.Error("raw data not found; run collect first", "path", cfg.RawDataPath, "err", err)
			} else {
				logger.Error("failed to read raw data", "path", cfg.RawDataPath, "err", err)
			}
			os.Exit(1)
		}
	}
	logger.Info("loaded raw measurements", "count", len(ms))

	rows, err := airquality.Preprocess(ms)
	if err != nil {
		logger.Error("preprocessing failed", "err", err)
		os.Exit(1)
	}

	if err := (store.FeatureFile{Path: cfg.ProcessedDataPath}).Save(rows); err != nil {
		logger.Error("failed to write feature table", "path", cfg.ProcessedDataPath, "err", err)
		os.Exit(1)
	}
	logger.Info("wrote feature table",
		"rows", len(rows),
		"from", rows[0].Date.Format("2006-01-02"),
		"to", rows[len(rows)-1].Date.Format("2006-01-02"),
		"path", cfg.ProcessedDataPath,
	)
}
