package ports

import (
	"context"
	"time"

	"NewsPipeline/internal/domain"
)

// ArticleSource pulls raw articles from the upstream search API. A failed
// topic is returned by name in the second value; only request construction
// or context errors surface as the third.
type ArticleSource interface {
	Fetch(ctx context.Context, topics []string, lookback time.Duration) ([]domain.RawArticle, []string, error)
}

// Enricher attaches full article text, best effort. Output has the same
// length and order as the input; the int reports how many fetches failed.
type Enricher interface {
	Enrich(ctx context.Context, articles []domain.Article) ([]domain.Article, int, error)
}

// Classifier attaches a sentiment label and score to every article. Warmup
// probes the model once per run; its failure is fatal. The int from Classify
// counts neutral fallbacks (empty text or failed batches).
type Classifier interface {
	Warmup(ctx context.Context) error
	Classify(ctx context.Context, articles []domain.Article) ([]domain.Article, int, error)
}

// Sink appends or replaces rows in the analytical destination and reports
// how many rows were persisted.
type Sink interface {
	Load(ctx context.Context, articles []domain.Article, mode domain.LoadMode) (int, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
