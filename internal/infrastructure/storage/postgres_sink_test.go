package storage

import (
	"strings"
	"testing"
	"time"

	"NewsPipeline/internal/domain"
)

func sampleArticle(key string) domain.Article {
	return domain.Article{
		Key:         key,
		URL:         "https://example.com/" + key,
		Title:       "Title " + key,
		Description: "Desc",
		Topic:       "AI",
		SourceName:  "S",
		PublishedAt: time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC),
		FullContent: "content",
		Sentiment:   &domain.SentimentResult{Label: domain.SentimentPositive, Score: 0.9, Value: 1},
	}
}

func TestBuildInsertBatchesAllRows(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{sampleArticle("a"), sampleArticle("b"), sampleArticle("c")}
	loadedAt := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	query, args, err := buildInsert("news_sentiment", articles, loadedAt)
	if err != nil {
		t.Fatalf("buildInsert error: %v", err)
	}

	if !strings.HasPrefix(query, "INSERT INTO news_sentiment") {
		t.Fatalf("unexpected query: %s", query)
	}
	if strings.Count(query, "(") < 4 {
		t.Fatalf("expected one value tuple per article: %s", query)
	}

	wantArgs := len(articles) * len(sinkColumns)
	if len(args) != wantArgs {
		t.Fatalf("expected %d args, got %d", wantArgs, len(args))
	}

	// Dollar placeholders, one per argument.
	if !strings.Contains(query, "$1") || !strings.Contains(query, "$36") {
		t.Fatalf("expected $1..$%d placeholders: %s", wantArgs, query)
	}

	if args[0] != "a" || args[len(sinkColumns)] != "b" {
		t.Fatalf("rows serialized out of order: %v, %v", args[0], args[len(sinkColumns)])
	}
	if args[len(args)-1] != loadedAt {
		t.Fatalf("last arg should be loadedAt, got %v", args[len(args)-1])
	}
}

func TestRowValuesNullableFields(t *testing.T) {
	t.Parallel()

	bare := domain.Article{Key: "k", Title: "t", Topic: "AI"}
	values := rowValues(bare, time.Now())

	if len(values) != len(sinkColumns) {
		t.Fatalf("value count %d does not match column count %d", len(values), len(sinkColumns))
	}

	// published_at, full_content, sentiment_* stay NULL when absent.
	for _, idx := range []int{6, 7, 8, 9, 10} {
		if values[idx] != nil {
			t.Fatalf("column %s should be nil, got %v", sinkColumns[idx], values[idx])
		}
	}
}

func TestRowValuesSentimentSerialized(t *testing.T) {
	t.Parallel()

	a := sampleArticle("k")
	values := rowValues(a, time.Now())

	if values[8] != domain.SentimentPositive {
		t.Fatalf("unexpected label: %v", values[8])
	}
	if values[9] != 0.9 {
		t.Fatalf("unexpected score: %v", values[9])
	}
	if values[10] != 1 {
		t.Fatalf("unexpected value: %v", values[10])
	}
}
