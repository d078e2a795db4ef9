package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by GetSummary for an unknown id.
var ErrNotFound = errors.New("summary not found")

// DefaultListLimit caps ListSummaries when no positive limit is given.
const DefaultListLimit = 50

// SummaryRecord is one row of the summaries table.
type SummaryRecord struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`      // "text" or "pdf"
	SourceName   string    `json:"source_name"` // uploaded file name, if any
	Strategy     string    `json:"strategy"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Words        int       `json:"words"`
	Chunks       int       `json:"chunks"`
	InputPreview string    `json:"input_preview"`
	Summary      string    `json:"summary"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository reads and writes summary history.
type Repository struct {
	db     *Database
	writer *AsyncWriter[SummaryRecord]
}

// NewRepository creates a repository with synchronous writes.
// Call StartAsync to move Record calls onto a background writer.
func NewRepository(db *Database) *Repository {
	return &Repository{db: db}
}

// StartAsync routes Record through an AsyncWriter.
func (r *Repository) StartAsync(config AsyncWriterConfig) {
	r.writer = NewAsyncWriter(func(ctx context.Context, rec SummaryRecord) error {
		_, err := r.InsertSummary(ctx, rec)
		return err
	}, config)
	r.writer.Start()
}

// Record stores rec without blocking the caller when the async writer is
// running; it falls back to a synchronous insert if the buffer is full.
// The returned id is assigned before queuing.
func (r *Repository) Record(ctx context.Context, rec SummaryRecord) (string, error) {
	prepareRecord(&rec)
	if r.writer != nil && r.writer.Write(rec) {
		return rec.ID, nil
	}
	return r.InsertSummary(ctx, rec)
}

// Close drains the async writer, if any. The Database is closed by its owner.
func (r *Repository) Close() {
	if r.writer != nil {
		r.writer.Stop()
	}
}

func prepareRecord(rec *SummaryRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
}

// InsertSummary writes rec synchronously and returns its id.
func (r *Repository) InsertSummary(ctx context.Context, rec SummaryRecord) (string, error) {
	prepareRecord(&rec)

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	conn, err := r.db.conn()
	if err != nil {
		return "", err
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO summaries (
			id, source, source_name, strategy, provider, model,
			words, chunks, input_preview, summary, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.SourceName, rec.Strategy, rec.Provider, rec.Model,
		rec.Words, rec.Chunks, rec.InputPreview, rec.Summary, rec.DurationMS,
		rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert summary: %w", err)
	}
	return rec.ID, nil
}

const selectColumns = `id, source, source_name, strategy, provider, model,
	words, chunks, input_preview, summary, duration_ms, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(s rowScanner) (SummaryRecord, error) {
	var rec SummaryRecord
	var created int64
	err := s.Scan(&rec.ID, &rec.Source, &rec.SourceName, &rec.Strategy, &rec.Provider, &rec.Model,
		&rec.Words, &rec.Chunks, &rec.InputPreview, &rec.Summary, &rec.DurationMS, &created)
	if err != nil {
		return SummaryRecord{}, err
	}
	rec.CreatedAt = time.UnixMilli(created)
	return rec, nil
}

// ListSummaries returns the newest records first.
func (r *Repository) ListSummaries(ctx context.Context, limit int) ([]SummaryRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM summaries ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	records := []SummaryRecord{}
	for rows.Next() {
		rec, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summaries: %w", err)
	}
	return records, nil
}

// GetSummary returns one record by id, or ErrNotFound.
func (r *Repository) GetSummary(ctx context.Context, id string) (SummaryRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	conn, err := r.db.conn()
	if err != nil {
		return SummaryRecord{}, err
	}

	rec, err := scanSummary(conn.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM summaries WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return SummaryRecord{}, ErrNotFound
	}
	if err != nil {
		return SummaryRecord{}, fmt.Errorf("failed to get summary %s: %w", id, err)
	}
	return rec, nil
}

// Count returns the number of stored summaries.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	conn, err := r.db.conn()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM summaries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return n, nil
}
