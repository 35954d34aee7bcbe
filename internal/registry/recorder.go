package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// InitRecord is one row of query_registry, as written by RecordInit.
type InitRecord struct {
	QueryID    string
	Descriptor any // marshaled to jsonb; typically the QueryDescriptor
	Trivial    bool
	Grouped    bool
	Cascade    bool
	CreatedAt  time.Time
}

// RematchRecord is one row of query_rematch_log, as appended by
// RecordRematch.
type RematchRecord struct {
	QueryID      string
	RematchCount uint32
	TableCount   int
	MatchCount   int
	ObservedAt   time.Time
}

// Recorder persists the registry tables. cmd/ecscached's inspect command
// reads them through ListQueries. Neither cmd/ecscached nor
// internal/ecscache calls RecordInit or RecordRematch, and the HTTP API's
// GET /queries lists the in-process cache registry, not these rows.
type Recorder struct {
	pool   *Pool
	logger *slog.Logger
}

// NewRecorder builds a Recorder against an already-connected Pool.
func NewRecorder(pool *Pool, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{pool: pool, logger: logger}
}

// RecordInit inserts r into query_registry. Failures are logged and
// returned but must never block cache construction — callers should
// treat this as best-effort (spec.md §5's "no suspension points").
func (r *Recorder) RecordInit(ctx context.Context, rec InitRecord) error {
	descriptor, err := json.Marshal(rec.Descriptor)
	if err != nil {
		return fmt.Errorf("registry: marshal descriptor: %w", err)
	}

	_, err = r.pool.Raw().Exec(ctx, `
		INSERT INTO query_registry (query_id, descriptor, trivial, grouped, cascade, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (query_id) DO UPDATE SET descriptor = EXCLUDED.descriptor`,
		rec.QueryID, descriptor, rec.Trivial, rec.Grouped, rec.Cascade, rec.CreatedAt)
	if err != nil {
		r.logger.Error("registry: record init failed", "query_id", rec.QueryID, "error", err)
		return fmt.Errorf("registry: record init: %w", err)
	}
	return nil
}

// RecordRematch appends rec to query_rematch_log.
func (r *Recorder) RecordRematch(ctx context.Context, rec RematchRecord) error {
	_, err := r.pool.Raw().Exec(ctx, `
		INSERT INTO query_rematch_log (query_id, rematch_count, table_count, match_count, observed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.QueryID, rec.RematchCount, rec.TableCount, rec.MatchCount, rec.ObservedAt)
	if err != nil {
		r.logger.Error("registry: record rematch failed", "query_id", rec.QueryID, "error", err)
		return fmt.Errorf("registry: record rematch: %w", err)
	}
	return nil
}

// ListQueries returns every registered query id and its metadata,
// ordered by created_at; used by cmd/ecscached's inspect command.
func (r *Recorder) ListQueries(ctx context.Context) ([]InitRecord, error) {
	rows, err := r.pool.Raw().Query(ctx, `
		SELECT query_id, trivial, grouped, cascade, created_at FROM query_registry ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("registry: list queries: %w", err)
	}
	defer rows.Close()

	var out []InitRecord
	for rows.Next() {
		var rec InitRecord
		if err := rows.Scan(&rec.QueryID, &rec.Trivial, &rec.Grouped, &rec.Cascade, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("registry: scan query row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
