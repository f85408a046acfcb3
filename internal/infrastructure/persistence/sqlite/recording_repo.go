package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
)

const recordingsTable = "provider_recordings"

// RecordingRepository implements port.RecordingStore on SQLite
type RecordingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecordingRepository creates a new recording repository. The schema must
// already be migrated; see Open.
func NewRecordingRepository(db *sql.DB, logger *zap.Logger) *RecordingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the recording stored under key
func (r *RecordingRepository) Get(ctx context.Context, key string) (*port.Recording, error) {
	query := `
		SELECT cache_key, validator_id, content_type, content, model,
			tokens_used, cost, confidence, metadata, recorded_at
		FROM provider_recordings
		WHERE cache_key = ?
	`

	var (
		rec      port.Recording
		metadata string
	)
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&rec.Key,
		&rec.ValidatorID,
		&rec.ContentType,
		&rec.Response.Content,
		&rec.Response.Model,
		&rec.Response.TokensUsed,
		&rec.Response.Cost,
		&rec.Response.Confidence,
		&metadata,
		&rec.RecordedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrRecordingNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get recording", zap.String("cache_key", key), zap.Error(err))
		return nil, &port.ResourceError{Resource: recordingsTable, Op: "get", Err: err}
	}

	if metadata != "" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &rec.Response.Metadata); err != nil {
			return nil, &port.ResourceError{
				Resource: recordingsTable,
				Op:       "get",
				Err:      fmt.Errorf("failed to decode metadata: %w", err),
			}
		}
	}
	return &rec, nil
}

// Put inserts or replaces a recording
func (r *RecordingRepository) Put(ctx context.Context, rec *port.Recording) error {
	if rec == nil || rec.Key == "" {
		return fmt.Errorf("recording has no key")
	}

	metadata, err := json.Marshal(rec.Response.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	recordedAt := rec.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	query := `
		INSERT INTO provider_recordings (
			cache_key, validator_id, content_type, content, model,
			tokens_used, cost, confidence, metadata, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			validator_id = excluded.validator_id,
			content_type = excluded.content_type,
			content = excluded.content,
			model = excluded.model,
			tokens_used = excluded.tokens_used,
			cost = excluded.cost,
			confidence = excluded.confidence,
			metadata = excluded.metadata,
			recorded_at = excluded.recorded_at
	`

	_, err = r.db.ExecContext(ctx, query,
		rec.Key,
		rec.ValidatorID,
		rec.ContentType,
		rec.Response.Content,
		rec.Response.Model,
		rec.Response.TokensUsed,
		rec.Response.Cost,
		rec.Response.Confidence,
		string(metadata),
		recordedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to store recording",
			zap.String("cache_key", rec.Key),
			zap.String("validator_id", rec.ValidatorID),
			zap.Error(err))
		return &port.ResourceError{Resource: recordingsTable, Op: "put", Err: err}
	}
	return nil
}

// Count returns the number of stored recordings
func (r *RecordingRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM provider_recordings").Scan(&n); err != nil {
		return 0, &port.ResourceError{Resource: recordingsTable, Op: "count", Err: err}
	}
	return n, nil
}

var _ port.RecordingStore = (*RecordingRepository)(nil)
