package transform

import (
	"net/url"
	"strings"
	"time"

	"NewsPipeline/internal/domain"
)

// Dedup merges raw result sets into one article collection with a unique,
// normalized key per article. First occurrence in input order wins on key
// collision; output preserves insertion order. Rows missing a title or URL
// are structurally invalid and dropped (returned as the second value).
func Dedup(raw []domain.RawArticle) ([]domain.Article, int) {
	articles := make([]domain.Article, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	dropped := 0

	for _, item := range raw {
		if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.URL) == "" {
			dropped++
			continue
		}

		key := Key(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		articles = append(articles, domain.Article{
			Key:         key,
			URL:         strings.TrimSpace(item.URL),
			Title:       strings.TrimSpace(item.Title),
			PublishedAt: item.PublishedAt.UTC().Truncate(24 * time.Hour),
			Topic:       item.Topic,
			SourceName:  item.SourceName,
			Description: item.Description,
		})
	}

	return articles, dropped
}

// Key derives the dedup identity: the case-folded, whitespace-trimmed URL,
// or a title|date composite when the URL is not an absolute URL.
func Key(item domain.RawArticle) string {
	rawURL := strings.ToLower(strings.TrimSpace(item.URL))

	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		title := strings.ToLower(strings.TrimSpace(item.Title))
		return title + "|" + item.PublishedAt.UTC().Format("2006-01-02")
	}

	return rawURL
}
