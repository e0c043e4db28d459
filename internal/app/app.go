package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/infrastructure/extractor"
	"NewsPipeline/internal/infrastructure/newsapi"
	"NewsPipeline/internal/infrastructure/scheduler"
	"NewsPipeline/internal/infrastructure/sentiment"
	"NewsPipeline/internal/infrastructure/storage"
	"NewsPipeline/internal/logging"
	"NewsPipeline/internal/server"
	"NewsPipeline/internal/usecase"
)

// Application wires configuration to the pipeline, the HTTP trigger, and
// the interval scheduler.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	sink     *storage.PostgresSink
	pipeline *usecase.Pipeline
}

// New validates configuration and builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	source := newsapi.NewClient(
		cfg.News.BaseURL,
		cfg.News.APIKey,
		cfg.News.PageSize,
		cfg.News.MaxPages,
		nil,
		baseLogger.With("component", "source"),
	)

	enricher := extractor.New(
		&http.Client{Timeout: cfg.Enrich.Timeout()},
		cfg.Enrich.Concurrency,
		baseLogger.With("component", "enricher"),
	)

	classifier := sentiment.NewClient(
		cfg.Sentiment.Endpoint,
		cfg.Sentiment.APIKey,
		cfg.Sentiment.BatchSize,
		nil,
		baseLogger.With("component", "classifier"),
	)

	sink := storage.NewPostgresSink(db, cfg.Database.Table, baseLogger.With("component", "sink"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Enricher:   enricher,
		Classifier: classifier,
		Sink:       sink,
		Topics:     cfg.News.Topics,
		Lookback:   cfg.News.Lookback(),
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		sink:     sink,
		pipeline: pipeline,
	}, nil
}

// RunOnce executes a single pipeline run with the configured default mode.
func (a *Application) RunOnce(ctx context.Context) (domain.RunSummary, error) {
	if err := a.sink.EnsureSchema(ctx); err != nil {
		return domain.RunSummary{State: domain.StateFailed}, err
	}
	return a.pipeline.Run(ctx, a.cfg.Load.LoadMode())
}

// Serve starts the interval scheduler and blocks on the HTTP trigger server.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.sink.EnsureSchema(ctx); err != nil {
		return err
	}

	sched := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval())
	job := func(trigger time.Time) {
		a.logger.Info("scheduled run triggered", "at", trigger.Format(time.RFC3339))
		if _, err := a.pipeline.Run(ctx, a.cfg.Load.LoadMode()); err != nil {
			a.logger.Error("scheduled run failed", "error", err)
		}
	}
	if err := sched.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { _ = sched.Stop(context.Background()) }()

	srv := server.New(a.pipeline, a.cfg.Load.LoadMode(), a.logger.With("component", "server"))
	a.logger.Info("http trigger listening", "addr", a.cfg.Server.Addr)
	return srv.Routes().Run(a.cfg.Server.Addr)
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
