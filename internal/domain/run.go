package domain

import "time"

// RunState tracks pipeline progress through the stages.
type RunState string

const (
	StateIdle         RunState = "idle"
	StateExtracting   RunState = "extracting"
	StateTransforming RunState = "transforming"
	StateClassifying  RunState = "classifying"
	StateLoading      RunState = "loading"
	StateCompleted    RunState = "completed"
	StateFailed       RunState = "failed"
)

// Run statuses distinguished in the structured response.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// RunSummary collects per-stage counters for one pipeline invocation.
// It is read-only after the run finishes and exists for observability only.
type RunSummary struct {
	State             RunState
	StartedAt         time.Time
	Duration          time.Duration
	Extracted         int
	FailedTopics      []string
	Dropped           int
	AfterDedup        int
	EnrichFailures    int
	ClassifyFallbacks int
	SentimentCounts   map[string]int
	RowsLoaded        int
}

// Status derives the operator-facing outcome: ok, partial (load succeeded but
// some topics or enrichments were lost) or failed.
func (s RunSummary) Status() string {
	if s.State == StateFailed {
		return StatusFailed
	}
	if len(s.FailedTopics) > 0 || s.EnrichFailures > 0 || s.ClassifyFallbacks > 0 {
		return StatusPartial
	}
	return StatusOK
}
