package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"NewsPipeline/internal/domain"
)

type fakeSource struct {
	raw    []domain.RawArticle
	failed []string
	err    error
}

func (f *fakeSource) Fetch(ctx context.Context, topics []string, lookback time.Duration) ([]domain.RawArticle, []string, error) {
	return f.raw, f.failed, f.err
}

type fakeEnricher struct {
	failures int
}

func (f *fakeEnricher) Enrich(ctx context.Context, articles []domain.Article) ([]domain.Article, int, error) {
	out := make([]domain.Article, len(articles))
	copy(out, articles)
	for i := range out {
		if i >= len(out)-f.failures {
			continue
		}
		out[i].FullContent = "content " + out[i].Key
	}
	return out, f.failures, nil
}

type fakeClassifier struct {
	warmupErr error
	calls     int
}

func (f *fakeClassifier) Warmup(ctx context.Context) error { return f.warmupErr }

func (f *fakeClassifier) Classify(ctx context.Context, articles []domain.Article) ([]domain.Article, int, error) {
	f.calls++
	out := make([]domain.Article, len(articles))
	copy(out, articles)
	for i := range out {
		out[i].Sentiment = &domain.SentimentResult{Label: domain.SentimentPositive, Score: 0.8, Value: 1}
	}
	return out, 0, nil
}

type fakeSink struct {
	rows   int
	err    error
	exact  bool
	called bool
	got    []domain.Article
	mode   domain.LoadMode
}

func (f *fakeSink) Load(ctx context.Context, articles []domain.Article, mode domain.LoadMode) (int, error) {
	f.called = true
	f.got = articles
	f.mode = mode
	if f.exact {
		return len(articles), f.err
	}
	return f.rows, f.err
}

func rawFixture(n int) []domain.RawArticle {
	raws := make([]domain.RawArticle, 0, n)
	for i := 0; i < n; i++ {
		raws = append(raws, domain.RawArticle{
			Topic:       "AI",
			Title:       "Title " + string(rune('a'+i)),
			URL:         "https://example.com/" + string(rune('a'+i)),
			Description: "d",
			SourceName:  "S",
			PublishedAt: time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC),
		})
	}
	return raws
}

func newTestPipeline(src *fakeSource, cls *fakeClassifier, sink *fakeSink) *Pipeline {
	return NewPipeline(PipelineDeps{
		Source:     src,
		Enricher:   &fakeEnricher{},
		Classifier: cls,
		Sink:       sink,
		Topics:     []string{"AI"},
		Lookback:   7 * 24 * time.Hour,
	})
}

func TestRunCompletes(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{exact: true}
	p := newTestPipeline(&fakeSource{raw: rawFixture(3)}, &fakeClassifier{}, sink)

	summary, err := p.Run(context.Background(), domain.LoadAppend)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if summary.State != domain.StateCompleted {
		t.Fatalf("expected completed state, got %s", summary.State)
	}
	if summary.Status() != domain.StatusOK {
		t.Fatalf("expected ok status, got %s", summary.Status())
	}
	if summary.Extracted != 3 || summary.AfterDedup != 3 || summary.RowsLoaded != 3 {
		t.Fatalf("unexpected counters: %+v", summary)
	}
	if sink.mode != domain.LoadAppend {
		t.Fatalf("unexpected mode: %s", sink.mode)
	}
	for _, a := range sink.got {
		if a.Sentiment == nil {
			t.Fatalf("article %s reached sink without sentiment", a.Key)
		}
	}
}

func TestRunPartialWithFailedTopic(t *testing.T) {
	t.Parallel()

	src := &fakeSource{raw: rawFixture(2), failed: []string{"Technology"}}
	p := newTestPipeline(src, &fakeClassifier{}, &fakeSink{exact: true})

	summary, err := p.Run(context.Background(), domain.LoadAppend)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if summary.State != domain.StateCompleted {
		t.Fatalf("expected completed state, got %s", summary.State)
	}
	if summary.Status() != domain.StatusPartial {
		t.Fatalf("expected partial status, got %s", summary.Status())
	}
	if len(summary.FailedTopics) != 1 || summary.FailedTopics[0] != "Technology" {
		t.Fatalf("failed topic not reported: %v", summary.FailedTopics)
	}
}

func TestRunFailsOnZeroArticles(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{exact: true}
	p := newTestPipeline(&fakeSource{failed: []string{"AI"}}, &fakeClassifier{}, sink)

	summary, err := p.Run(context.Background(), domain.LoadAppend)
	if err == nil {
		t.Fatalf("expected error for zero articles")
	}
	if summary.State != domain.StateFailed {
		t.Fatalf("expected failed state, got %s", summary.State)
	}
	if sink.called {
		t.Fatalf("sink must not be called on fatal error")
	}
}

func TestRunFailsOnWarmupError(t *testing.T) {
	t.Parallel()

	cls := &fakeClassifier{warmupErr: &domain.ModelInitError{Err: errors.New("connection refused")}}
	sink := &fakeSink{exact: true}
	p := newTestPipeline(&fakeSource{raw: rawFixture(2)}, cls, sink)

	summary, err := p.Run(context.Background(), domain.LoadAppend)
	if err == nil {
		t.Fatalf("expected error on warmup failure")
	}

	var initErr *domain.ModelInitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected ModelInitError, got %v", err)
	}
	if summary.State != domain.StateFailed {
		t.Fatalf("expected failed state, got %s", summary.State)
	}
	if cls.calls != 0 {
		t.Fatalf("classify must not run after warmup failure")
	}
	if sink.called {
		t.Fatalf("sink must not be called after warmup failure")
	}
}

func TestRunFailsOnRowCountMismatch(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{rows: 1}
	p := newTestPipeline(&fakeSource{raw: rawFixture(3)}, &fakeClassifier{}, sink)

	summary, err := p.Run(context.Background(), domain.LoadReplace)
	if err == nil {
		t.Fatalf("expected error on row count mismatch")
	}

	var loadErr *domain.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if summary.State != domain.StateFailed {
		t.Fatalf("expected failed state, got %s", summary.State)
	}
	if summary.RowsLoaded != 1 {
		t.Fatalf("summary should report the actual count, got %d", summary.RowsLoaded)
	}
}

func TestRunFailsOnSinkError(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{err: &domain.LoadError{Err: errors.New("schema mismatch")}}
	p := newTestPipeline(&fakeSource{raw: rawFixture(2)}, &fakeClassifier{}, sink)

	summary, err := p.Run(context.Background(), domain.LoadAppend)
	if err == nil {
		t.Fatalf("expected error on sink failure")
	}

	var loadErr *domain.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if summary.Status() != domain.StatusFailed {
		t.Fatalf("expected failed status, got %s", summary.Status())
	}
}

func TestRunSurvivesTotalEnrichmentFailure(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{exact: true}
	p := NewPipeline(PipelineDeps{
		Source:     &fakeSource{raw: rawFixture(3)},
		Enricher:   &fakeEnricher{failures: 3},
		Classifier: &fakeClassifier{},
		Sink:       sink,
		Topics:     []string{"AI"},
		Lookback:   24 * time.Hour,
	})

	summary, err := p.Run(context.Background(), domain.LoadAppend)
	if err != nil {
		t.Fatalf("total enrichment failure must not abort: %v", err)
	}
	if summary.State != domain.StateCompleted {
		t.Fatalf("expected completed state, got %s", summary.State)
	}
	if summary.EnrichFailures != 3 {
		t.Fatalf("expected 3 enrich failures, got %d", summary.EnrichFailures)
	}
	if summary.Status() != domain.StatusPartial {
		t.Fatalf("expected partial status, got %s", summary.Status())
	}
	for _, a := range sink.got {
		if a.FullContent != "" {
			t.Fatalf("expected empty content for %s", a.Key)
		}
		if a.Sentiment == nil {
			t.Fatalf("article %s should still carry sentiment", a.Key)
		}
	}
}
