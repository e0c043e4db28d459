package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"NewsPipeline/internal/app"
	"NewsPipeline/internal/config"
	"NewsPipeline/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run the pipeline a single time and exit")
	flag.Parse()

	// Optional .env for local runs; deployed environments set real env vars.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if *once {
		summary, err := application.RunOnce(ctx)
		if err != nil {
			logger.Error("run failed", "error", err, "state", summary.State)
			os.Exit(1)
		}
		logger.Info("run finished",
			"status", summary.Status(),
			"rows_loaded", summary.RowsLoaded,
			"duration", summary.Duration)
		return
	}

	if err := application.Serve(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
