package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"videoindex/core"
)

// ErrDocumentNotFound is returned by Load when no metadata row exists for
// the document id.
var ErrDocumentNotFound = errors.New("document metadata not found")

// Pool abstracts the pgx connection pool so tests can substitute a mock.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// MetadataRepository persists a processed video's two timelines as document
// metadata, keyed by document id, and reloads them for chunk augmentation.
type MetadataRepository interface {
	Save(ctx context.Context, documentID string, result *core.ParseVideoResult) error
	Load(ctx context.Context, documentID string) (frames, transcript *core.TimeSeriesIndex, err error)
	Delete(ctx context.Context, documentID string) error
}

type metadataRepository struct {
	pool Pool
}

func NewMetadataRepository(pool Pool) MetadataRepository {
	return &metadataRepository{pool: pool}
}

// NewPool opens a pgx connection pool for the metadata store.
func NewPool(ctx context.Context, postgresURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, postgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect to metadata store: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the metadata table when missing. The two timelines
// are stored as JSONB arrays of ordered [time, content] pairs, matching the
// index wire format.
func EnsureSchema(ctx context.Context, pool Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS video_metadata (
			document_id        TEXT PRIMARY KEY,
			duration           DOUBLE PRECISION NOT NULL,
			fps                DOUBLE PRECISION NOT NULL,
			total_frames       BIGINT NOT NULL,
			frame_sample_rate  INTEGER NOT NULL,
			frame_descriptions JSONB NOT NULL,
			transcript         JSONB NOT NULL,
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure video_metadata schema: %w", err)
	}
	return nil
}

func (r *metadataRepository) Save(ctx context.Context, documentID string, result *core.ParseVideoResult) error {
	frames, err := json.Marshal(result.FrameDescriptions)
	if err != nil {
		return fmt.Errorf("marshal frame descriptions: %w", err)
	}
	transcript, err := json.Marshal(result.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	sql := `INSERT INTO video_metadata
		(document_id, duration, fps, total_frames, frame_sample_rate, frame_descriptions, transcript, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (document_id) DO UPDATE SET
			duration = EXCLUDED.duration,
			fps = EXCLUDED.fps,
			total_frames = EXCLUDED.total_frames,
			frame_sample_rate = EXCLUDED.frame_sample_rate,
			frame_descriptions = EXCLUDED.frame_descriptions,
			transcript = EXCLUDED.transcript,
			updated_at = now()`
	_, err = r.pool.Exec(ctx, sql,
		documentID,
		result.Metadata.Duration,
		result.Metadata.FPS,
		result.Metadata.TotalFrames,
		result.Metadata.FrameSampleRate,
		frames,
		transcript,
	)
	if err != nil {
		return fmt.Errorf("save metadata for document %s: %w", documentID, err)
	}
	return nil
}

func (r *metadataRepository) Load(ctx context.Context, documentID string) (*core.TimeSeriesIndex, *core.TimeSeriesIndex, error) {
	sql := "SELECT frame_descriptions, transcript FROM video_metadata WHERE document_id = $1"
	var framesRaw, transcriptRaw []byte
	err := r.pool.QueryRow(ctx, sql, documentID).Scan(&framesRaw, &transcriptRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
		}
		return nil, nil, fmt.Errorf("load metadata for document %s: %w", documentID, err)
	}

	frames := core.NewTimeSeriesIndex()
	if err := json.Unmarshal(framesRaw, frames); err != nil {
		return nil, nil, fmt.Errorf("unmarshal frame descriptions for document %s: %w", documentID, err)
	}
	transcript := core.NewTimeSeriesIndex()
	if err := json.Unmarshal(transcriptRaw, transcript); err != nil {
		return nil, nil, fmt.Errorf("unmarshal transcript for document %s: %w", documentID, err)
	}
	return frames, transcript, nil
}

func (r *metadataRepository) Delete(ctx context.Context, documentID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM video_metadata WHERE document_id = $1", documentID)
	if err != nil {
		return fmt.Errorf("delete metadata for document %s: %w", documentID, err)
	}
	return nil
}
