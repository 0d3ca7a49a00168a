package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/i474232898/air-quality-predict/internal/config"
	"github.com/i474232898/air-quality-predict/internal/logging"
	"github.com/i474232898/air-quality-predict/internal/model"
	"github.com/i474232898/air-quality-predict/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg, "train")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rows, err := store.FeatureFile{Path: cfg.ProcessedDataPath}.Load()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Error("feature table not found; run preprocess first", "path", cfg.ProcessedDataPath, "err", err)
		} else {
			logger.Error("failed to read feature table", "path", cfg.ProcessedDataPath, "err", err)
		}
		os.Exit(1)
	}

	params := model.DefaultParams()
	params.NEstimators = cfg.NEstimators
	params.Seed = cfg.RandomState

	logger.Info("training random forest", "rows", len(rows), "trees", params.NEstimators, "seed", params.Seed)
	artifact, err := model.Train(ctx, rows, cfg.TestSize, params)
	if err != nil {
		logger.Error("training failed", "err", err)
		os.Exit(1)
	}

	if err := model.WriteReport(os.Stdout, artifact); err != nil {
		logger.Error("failed to print report", "err", err)
	}

	if err := model.Save(cfg.ModelPath, artifact); err != nil {
		logger.Error("failed to save model", "path", cfg.ModelPath, "err", err)
		os.Exit(1)
	}
	logger.Info("saved model", "id", artifact.ID, "path", cfg.ModelPath)
}
