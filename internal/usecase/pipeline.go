package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
	"NewsPipeline/internal/transform"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Enricher   ports.Enricher
	Classifier ports.Classifier
	Sink       ports.Sink
	Topics     []string
	Lookback   time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

// Pipeline sequences Extract -> Transform -> Classify -> Load for one run.
// Per-item failures stay inside their stage and surface only as counters;
// a stage that yields zero usable input, a classifier init failure, or a
// sink failure ends the run in the failed state.
type Pipeline struct {
	source     ports.ArticleSource
	enricher   ports.Enricher
	classifier ports.Classifier
	sink       ports.Sink
	topics     []string
	lookback   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		source:     deps.Source,
		enricher:   deps.Enricher,
		classifier: deps.Classifier,
		sink:       deps.Sink,
		topics:     deps.Topics,
		lookback:   deps.Lookback,
		logger:     deps.Logger,
		now:        now,
	}
}

// Run executes one complete pipeline invocation and returns its summary.
// On a fatal error the summary carries the failed state and the error names
// the stage; the sink is never called after a fatal error.
func (p *Pipeline) Run(ctx context.Context, mode domain.LoadMode) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		State:     domain.StateExtracting,
		StartedAt: p.now(),
	}
	fail := func(err error) (domain.RunSummary, error) {
		summary.State = domain.StateFailed
		summary.Duration = p.now().Sub(summary.StartedAt)
		p.logError("run failed", "error", err)
		return summary, err
	}

	p.logInfo("run started", "topics", len(p.topics), "mode", mode)

	raw, failedTopics, err := p.source.Fetch(ctx, p.topics, p.lookback)
	if err != nil {
		return fail(fmt.Errorf("extract: %w", err))
	}
	summary.Extracted = len(raw)
	summary.FailedTopics = failedTopics
	if len(raw) == 0 {
		return fail(fmt.Errorf("extract: no articles fetched from any topic"))
	}
	p.logInfo("extracted", "articles", len(raw), "failed_topics", failedTopics)

	summary.State = domain.StateTransforming
	articles, dropped := transform.Dedup(raw)
	summary.Dropped = dropped
	summary.AfterDedup = len(articles)
	if len(articles) == 0 {
		return fail(fmt.Errorf("transform: no valid articles after dedup"))
	}
	p.logInfo("deduplicated", "articles", len(articles), "dropped", dropped)

	articles, enrichFailures, err := p.enricher.Enrich(ctx, articles)
	if err != nil {
		return fail(fmt.Errorf("transform: %w", err))
	}
	summary.EnrichFailures = enrichFailures
	p.logInfo("enriched", "articles", len(articles), "failures", enrichFailures)

	summary.State = domain.StateClassifying
	if err := p.classifier.Warmup(ctx); err != nil {
		return fail(fmt.Errorf("classify: %w", err))
	}
	articles, fallbacks, err := p.classifier.Classify(ctx, articles)
	if err != nil {
		return fail(fmt.Errorf("classify: %w", err))
	}
	summary.ClassifyFallbacks = fallbacks
	summary.SentimentCounts = sentimentCounts(articles)
	p.logInfo("classified", "articles", len(articles), "fallbacks", fallbacks, "distribution", summary.SentimentCounts)

	summary.State = domain.StateLoading
	rows, err := p.sink.Load(ctx, articles, mode)
	summary.RowsLoaded = rows
	if err != nil {
		return fail(fmt.Errorf("load: %w", err))
	}
	if rows != len(articles) {
		return fail(fmt.Errorf("load: %w", &domain.LoadError{
			Err: fmt.Errorf("persisted %d rows, expected %d", rows, len(articles)),
		}))
	}

	summary.State = domain.StateCompleted
	summary.Duration = p.now().Sub(summary.StartedAt)
	p.logInfo("run completed",
		"status", summary.Status(),
		"rows_loaded", rows,
		"duration", summary.Duration)
	return summary, nil
}

func sentimentCounts(articles []domain.Article) map[string]int {
	counts := make(map[string]int, 3)
	for _, a := range articles {
		if a.Sentiment != nil {
			counts[a.Sentiment.Label]++
		}
	}
	return counts
}

func (p *Pipeline) logInfo(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) logError(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
