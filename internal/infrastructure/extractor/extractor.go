package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

const (
	defaultConcurrency = 8
	maxContentLength   = 1000
	userAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Extractor retrieves full article bodies best effort. Any per-article
// failure resolves to empty content; availability of secondary sources must
// never decide the run's outcome.
type Extractor struct {
	client      *http.Client
	concurrency int
	logger      *slog.Logger
}

var _ ports.Enricher = (*Extractor)(nil)

// New wires an HTTP client with a per-request timeout; concurrency bounds
// the worker pool and defaults to 8.
func New(client *http.Client, concurrency int, logger *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Extractor{client: client, concurrency: concurrency, logger: logger}
}

// Enrich fetches every article body through a bounded pool. Results are
// written by index, so output length and order always match the input.
func (e *Extractor) Enrich(ctx context.Context, articles []domain.Article) ([]domain.Article, int, error) {
	out := make([]domain.Article, len(articles))
	copy(out, articles)

	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range out {
		i := i
		g.Go(func() error {
			content, err := e.extract(gctx, out[i].URL)
			if err != nil {
				e.debug("enrichment failed", "key", out[i].Key, "error", err)
				failures.Add(1)
				return nil
			}
			out[i].FullContent = content
			return nil
		})
	}
	_ = g.Wait()

	e.debug("enrichment done", "articles", len(out), "failures", failures.Load())
	return out, int(failures.Load()), nil
}

func (e *Extractor) extract(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", fmt.Errorf("empty url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	content := extractBody(doc)
	if content == "" {
		return "", fmt.Errorf("no content extracted")
	}

	return truncate(content, maxContentLength), nil
}

// extractBody joins paragraph text, falling back to article, main, and
// common content containers when the page has no usable paragraphs.
func extractBody(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	for _, selector := range []string{"article", "main", "div.content", "div.article"} {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}

	return ""
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
