package domain

import "time"

// RawArticle is a single result row from the news search API before
// deduplication. It carries no identity beyond its URL.
type RawArticle struct {
	Topic       string
	Title       string
	Description string
	URL         string
	SourceName  string
	PublishedAt time.Time
	Snippet     string
}

// Article is the canonical unit flowing through the pipeline after
// deduplication. FullContent stays empty when enrichment fails and
// Sentiment stays nil until classification.
type Article struct {
	Key         string
	URL         string
	Title       string
	PublishedAt time.Time
	Topic       string
	SourceName  string
	Description string
	FullContent string
	Sentiment   *SentimentResult
}

// Sentiment labels attached by the classifier.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SentimentResult is the classifier output for one article.
type SentimentResult struct {
	Label string
	Score float64
	Value int
}

// NeutralSentiment is the fallback result for empty or unclassifiable text.
func NeutralSentiment() *SentimentResult {
	return &SentimentResult{Label: SentimentNeutral, Score: 0.5, Value: 0}
}

// SentimentValue maps a label to its numeric form used for aggregation.
func SentimentValue(label string) int {
	switch label {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

// LoadMode selects how the sink writes the run's rows.
type LoadMode string

const (
	LoadAppend  LoadMode = "append"
	LoadReplace LoadMode = "replace"
)

// ParseLoadMode validates a user-supplied mode string.
func ParseLoadMode(value string) (LoadMode, bool) {
	switch LoadMode(value) {
	case LoadAppend, LoadReplace:
		return LoadMode(value), true
	}
	return "", false
}
