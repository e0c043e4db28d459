package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

const (
	defaultBatchSize = 32
	maxTextLength    = 512
)

// Client talks to a text-classification inference service over HTTP.
// Batching is a throughput knob only; labels are a pure per-item function
// of the text, so batch boundaries never change the output.
type Client struct {
	endpoint  string
	apiKey    string
	batchSize int
	client    *http.Client
	logger    *slog.Logger
}

var _ ports.Classifier = (*Client)(nil)

// NewClient creates a reusable HTTP client; batchSize defaults to 32.
func NewClient(endpoint, apiKey string, batchSize int, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Client{
		endpoint:  strings.TrimSuffix(endpoint, "/"),
		apiKey:    apiKey,
		batchSize: batchSize,
		client:    httpClient,
		logger:    logger,
	}
}

// Warmup probes the model once per run. Failure is fatal: sentiment is a
// required output field, so the run aborts before loading.
func (c *Client) Warmup(ctx context.Context) error {
	if _, err := c.infer(ctx, []string{"ok"}); err != nil {
		return &domain.ModelInitError{Err: err}
	}
	return nil
}

// Classify attaches a sentiment result to every article. Empty text yields
// the neutral fallback without touching the model; a failed batch request
// resolves every item in that batch to the fallback. The int counts those
// fallbacks.
func (c *Client) Classify(ctx context.Context, articles []domain.Article) ([]domain.Article, int, error) {
	out := make([]domain.Article, len(articles))
	copy(out, articles)

	fallbacks := 0
	for start := 0; start < len(out); start += c.batchSize {
		end := start + c.batchSize
		if end > len(out) {
			end = len(out)
		}

		var texts []string
		var indexes []int
		for i := start; i < end; i++ {
			text := ClassificationText(out[i])
			if text == "" {
				out[i].Sentiment = domain.NeutralSentiment()
				fallbacks++
				continue
			}
			texts = append(texts, text)
			indexes = append(indexes, i)
		}
		if len(texts) == 0 {
			continue
		}

		results, err := c.infer(ctx, texts)
		if err != nil || len(results) != len(texts) {
			c.warn("batch inference failed, applying neutral fallback", "batch", start/c.batchSize, "items", len(texts), "error", err)
			for _, i := range indexes {
				out[i].Sentiment = domain.NeutralSentiment()
			}
			fallbacks += len(indexes)
			continue
		}

		for j, i := range indexes {
			label := normalizeLabel(results[j].Label)
			out[i].Sentiment = &domain.SentimentResult{
				Label: label,
				Score: results[j].Score,
				Value: domain.SentimentValue(label),
			}
		}
	}

	return out, fallbacks, nil
}

// ClassificationText selects the text the model sees: full content when
// enrichment succeeded, otherwise description, otherwise title, truncated
// to the model's input window.
func ClassificationText(a domain.Article) string {
	for _, candidate := range []string{a.FullContent, a.Description, a.Title} {
		if text := strings.TrimSpace(candidate); text != "" {
			runes := []rune(text)
			if len(runes) > maxTextLength {
				return string(runes[:maxTextLength])
			}
			return text
		}
	}
	return ""
}

func normalizeLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive":
		return domain.SentimentPositive
	case "negative":
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

type inferenceResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *Client) infer(ctx context.Context, texts []string) ([]inferenceResult, error) {
	body, err := json.Marshal(map[string]any{"inputs": texts})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("inference returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var results []inferenceResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return results, nil
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
