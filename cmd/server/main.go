package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/logger"

	httpapi "github.com/i474232898/air-quality-predict/internal/api/http"
	"github.com/i474232898/air-quality-predict/internal/config"
	"github.com/i474232898/air-quality-predict/internal/logging"
	"github.com/i474232898/air-quality-predict/internal/model"
)

const appName = "air-quality-predict"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logging.New(cfg, "server")

	// The model is loaded once; the server does not start without it.
	m, err := model.Load(cfg.ModelPath)
	if err != nil {
		lg.Error("failed to load model; run train first", "path", cfg.ModelPath, "err", err)
		os.Exit(1)
	}
	lg.Info("model loaded",
		"id", m.ID,
		"trained_at", m.CreatedAt,
		"trees", len(m.Forest.Trees),
		"test_r2", m.Evaluation.Test.R2,
	)

	app := httpapi.NewApp(appName)
	app.Use(logger.New())
	httpapi.RegisterRoutes(app, m, cfg.Location.City)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		lg.Info("listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			lg.Error("fiber server stopped", "err", err)
			stop()
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error("error during shutdown", "err", err)
	}
}
