package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// PostgresSink appends or replaces rows in the analytical table. Writes go
// out as one batched multi-row insert, never row by row, to keep the
// partial-write window minimal.
type PostgresSink struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.Sink = (*PostgresSink)(nil)

var sinkColumns = []string{
	"dedup_key",
	"topic",
	"title",
	"description",
	"url",
	"source_name",
	"published_at",
	"full_content",
	"sentiment_label",
	"sentiment_score",
	"sentiment_value",
	"loaded_at",
}

// NewPostgresSink wires a sql.DB and the destination table name.
func NewPostgresSink(db *sql.DB, table string, logger *slog.Logger) *PostgresSink {
	return &PostgresSink{db: db, table: table, logger: logger, now: time.Now}
}

// EnsureSchema creates the destination table when it does not exist yet.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		dedup_key       TEXT NOT NULL,
		topic           TEXT NOT NULL,
		title           TEXT NOT NULL,
		description     TEXT,
		url             TEXT,
		source_name     TEXT,
		published_at    DATE,
		full_content    TEXT,
		sentiment_label TEXT,
		sentiment_score DOUBLE PRECISION,
		sentiment_value INTEGER,
		loaded_at       TIMESTAMPTZ NOT NULL
	)`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure schema for %s: %w", s.table, err)
	}
	return nil
}

// Load persists the run's articles. In replace mode the table contents are
// fully overwritten inside one transaction; append mode adds rows without
// cross-run dedup. Returns the exact number of rows written; a mismatch
// with the input length is a LoadError.
func (s *PostgresSink) Load(ctx context.Context, articles []domain.Article, mode domain.LoadMode) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	query, args, err := buildInsert(s.table, articles, s.now().UTC())
	if err != nil {
		return 0, &domain.LoadError{Err: fmt.Errorf("build insert: %w", err)}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &domain.LoadError{Err: fmt.Errorf("begin tx: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	if mode == domain.LoadReplace {
		if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+s.table); err != nil {
			return 0, &domain.LoadError{Err: fmt.Errorf("truncate %s: %w", s.table, err)}
		}
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &domain.LoadError{Err: fmt.Errorf("insert rows: %w", err)}
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, &domain.LoadError{Err: fmt.Errorf("rows affected: %w", err)}
	}

	if err := tx.Commit(); err != nil {
		return 0, &domain.LoadError{Err: fmt.Errorf("commit: %w", err)}
	}

	if int(count) != len(articles) {
		return int(count), &domain.LoadError{
			Err: fmt.Errorf("persisted %d rows, expected %d", count, len(articles)),
		}
	}

	s.debug("load done", "mode", mode, "rows", count, "table", s.table)
	return int(count), nil
}

// buildInsert serializes every article into the fixed flat row schema and
// builds one multi-row INSERT with $n placeholders.
func buildInsert(table string, articles []domain.Article, loadedAt time.Time) (string, []any, error) {
	builder := sq.Insert(table).
		Columns(sinkColumns...).
		PlaceholderFormat(sq.Dollar)

	for _, a := range articles {
		builder = builder.Values(rowValues(a, loadedAt)...)
	}

	return builder.ToSql()
}

func rowValues(a domain.Article, loadedAt time.Time) []any {
	var label, score, value any
	if a.Sentiment != nil {
		label = a.Sentiment.Label
		score = a.Sentiment.Score
		value = a.Sentiment.Value
	}

	var published any
	if !a.PublishedAt.IsZero() {
		published = a.PublishedAt
	}

	var content any
	if a.FullContent != "" {
		content = a.FullContent
	}

	return []any{
		a.Key,
		a.Topic,
		a.Title,
		a.Description,
		a.URL,
		a.SourceName,
		published,
		content,
		label,
		score,
		value,
		loadedAt,
	}
}

func (s *PostgresSink) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
