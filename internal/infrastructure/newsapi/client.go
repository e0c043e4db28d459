package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

const (
	defaultPageSize = 100
	defaultMaxPages = 1
	dateLayout      = "2006-01-02"
	unknownSource   = "Unknown"
)

// Client queries a NewsAPI-style search endpoint per topic with bounded
// pagination. Stateless apart from the HTTP client; safe to retry.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	maxPages int
	client   *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.ArticleSource = (*Client)(nil)

// NewClient wires an HTTP client; pageSize defaults to 100, maxPages to 1.
func NewClient(baseURL, apiKey string, pageSize, maxPages int, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		pageSize: pageSize,
		maxPages: maxPages,
		client:   httpClient,
		logger:   logger,
		now:      time.Now,
	}
}

// Fetch queries every topic concurrently. A topic whose request fails is
// reported by name and excluded; the remaining topics still contribute.
// Pages within one topic are fetched in order.
func (c *Client) Fetch(ctx context.Context, topics []string, lookback time.Duration) ([]domain.RawArticle, []string, error) {
	now := c.now().UTC()
	from := now.Add(-lookback).Format(dateLayout)
	to := now.Format(dateLayout)

	perTopic := make([][]domain.RawArticle, len(topics))
	failed := make(map[int]string)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, topic := range topics {
		i, topic := i, topic
		g.Go(func() error {
			articles, err := c.fetchTopic(gctx, topic, from, to)
			if err != nil {
				tErr := &domain.TransientFetchError{Topic: topic, Err: err}
				c.debug("topic fetch failed", "topic", topic, "error", tErr)
				mu.Lock()
				failed[i] = topic
				mu.Unlock()
				return nil
			}
			mu.Lock()
			perTopic[i] = articles
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var combined []domain.RawArticle
	for _, articles := range perTopic {
		combined = append(combined, articles...)
	}

	failedTopics := make([]string, 0, len(failed))
	indexes := make([]int, 0, len(failed))
	for i := range failed {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		failedTopics = append(failedTopics, failed[i])
	}

	c.debug("fetch done", "topics", len(topics), "failed", len(failedTopics), "articles", len(combined))
	return combined, failedTopics, nil
}

func (c *Client) fetchTopic(ctx context.Context, topic, from, to string) ([]domain.RawArticle, error) {
	var collected []domain.RawArticle

	for page := 1; page <= c.maxPages; page++ {
		pageURL, err := c.buildQueryURL(topic, from, to, page)
		if err != nil {
			return nil, err
		}

		results, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		for _, item := range results {
			collected = append(collected, item.toRaw(topic))
		}

		if len(results) < c.pageSize {
			break
		}
	}

	return collected, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]apiArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news api returned %s", resp.Status)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}

	if payload.Status != "ok" {
		return nil, fmt.Errorf("news api status %s: %s", payload.Status, payload.Message)
	}

	return payload.Articles, nil
}

func (c *Client) buildQueryURL(topic, from, to string, page int) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %s: %w", c.baseURL, err)
	}

	query := parsed.Query()
	query.Set("q", topic)
	query.Set("from", from)
	query.Set("to", to)
	query.Set("language", "en")
	query.Set("sortBy", "relevancy")
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(c.pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

type apiResponse struct {
	Status   string       `json:"status"`
	Message  string       `json:"message"`
	Total    int          `json:"totalResults"`
	Articles []apiArticle `json:"articles"`
}

type apiArticle struct {
	Source      apiSource `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt string    `json:"publishedAt"`
	Content     string    `json:"content"`
}

type apiSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a apiArticle) toRaw(topic string) domain.RawArticle {
	publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		publishedAt = time.Time{}
	}

	name := a.Source.Name
	if name == "" {
		name = unknownSource
	}

	return domain.RawArticle{
		Topic:       topic,
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		SourceName:  name,
		PublishedAt: publishedAt,
		Snippet:     a.Content,
	}
}
