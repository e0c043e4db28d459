package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"NewsPipeline/internal/domain"
)

// Runner triggers one pipeline execution.
type Runner interface {
	Run(ctx context.Context, mode domain.LoadMode) (domain.RunSummary, error)
}

// Server exposes the pipeline behind an HTTP trigger endpoint so an
// external scheduler can invoke runs on a fixed cadence.
type Server struct {
	runner      Runner
	defaultMode domain.LoadMode
	logger      *slog.Logger
}

// New wires the runner with the configured default load mode.
func New(runner Runner, defaultMode domain.LoadMode, logger *slog.Logger) *Server {
	return &Server{runner: runner, defaultMode: defaultMode, logger: logger}
}

// Routes builds the gin engine with the trigger and liveness endpoints.
func (s *Server) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.POST("/run", s.handleRun)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return engine
}

type runResponse struct {
	Success   bool        `json:"success"`
	Status    string      `json:"status"`
	Summary   *summaryDTO `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type summaryDTO struct {
	State             string         `json:"state"`
	StartedAt         string         `json:"started_at"`
	DurationSeconds   float64        `json:"duration_seconds"`
	Extracted         int            `json:"articles_extracted"`
	FailedTopics      []string       `json:"failed_topics,omitempty"`
	Dropped           int            `json:"articles_dropped"`
	AfterDedup        int            `json:"articles_after_dedup"`
	EnrichFailures    int            `json:"enrich_failures"`
	ClassifyFallbacks int            `json:"classify_fallbacks"`
	SentimentCounts   map[string]int `json:"sentiment_counts,omitempty"`
	RowsLoaded        int            `json:"rows_loaded"`
}

// handleRun accepts an optional load mode override and responds with the
// structured run outcome: ok and partial runs answer 200, fatal runs 500.
func (s *Server) handleRun(c *gin.Context) {
	mode := s.defaultMode
	if raw := c.Query("mode"); raw != "" {
		parsed, ok := domain.ParseLoadMode(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, runResponse{
				Success:   false,
				Status:    domain.StatusFailed,
				Error:     "invalid mode: " + raw,
				Timestamp: time.Now().Format(time.RFC3339),
			})
			return
		}
		mode = parsed
	}

	summary, err := s.runner.Run(c.Request.Context(), mode)
	if err != nil {
		s.logError("run failed", "error", err)
		c.JSON(http.StatusInternalServerError, runResponse{
			Success:   false,
			Status:    summary.Status(),
			Summary:   toDTO(summary),
			Error:     err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, runResponse{
		Success:   true,
		Status:    summary.Status(),
		Summary:   toDTO(summary),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func toDTO(summary domain.RunSummary) *summaryDTO {
	return &summaryDTO{
		State:             string(summary.State),
		StartedAt:         summary.StartedAt.Format(time.RFC3339),
		DurationSeconds:   summary.Duration.Seconds(),
		Extracted:         summary.Extracted,
		FailedTopics:      summary.FailedTopics,
		Dropped:           summary.Dropped,
		AfterDedup:        summary.AfterDedup,
		EnrichFailures:    summary.EnrichFailures,
		ClassifyFallbacks: summary.ClassifyFallbacks,
		SentimentCounts:   summary.SentimentCounts,
		RowsLoaded:        summary.RowsLoaded,
	}
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
