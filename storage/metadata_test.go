package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoindex/core"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func sampleResult() *core.ParseVideoResult {
	return &core.ParseVideoResult{
		Metadata: core.VideoMetadata{
			Duration:        3,
			FPS:             2,
			TotalFrames:     6,
			FrameSampleRate: 2,
		},
		Transcript:        core.NewTimeSeriesIndexFromMap(map[float64]string{1.5: "hello"}),
		FrameDescriptions: core.NewTimeSeriesIndexFromMap(map[float64]string{2.0: "a red car"}),
	}
}

func TestMetadataRepositorySave(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr bool
	}{
		{
			name: "successful upsert",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("INSERT INTO video_metadata").
					WithArgs("doc-1", 3.0, 2.0, 6, 2, pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			wantErr: false,
		},
		{
			name: "database error",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("INSERT INTO video_metadata").
					WithArgs("doc-1", 3.0, 2.0, 6, 2, pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(assert.AnError)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)
			repo := NewMetadataRepository(mock)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err = repo.Save(ctx, "doc-1", sampleResult())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMetadataRepositoryLoad(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT frame_descriptions, transcript FROM video_metadata").
		WithArgs("doc-1").
		WillReturnRows(pgxmock.NewRows([]string{"frame_descriptions", "transcript"}).
			AddRow(
				[]byte(`[{"time":2,"content":"a red car"}]`),
				[]byte(`[{"time":1,"content":"hello"},{"time":3,"content":"world"}]`),
			))

	repo := NewMetadataRepository(mock)
	frames, transcript, err := repo.Load(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.Equal(t, []float64{2}, frames.TimesFor("a red car"))
	assert.Equal(t, 2, transcript.Len())
	assert.Equal(t, "hello", transcript.At(1, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetadataRepositoryLoadNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT frame_descriptions, transcript FROM video_metadata").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	repo := NewMetadataRepository(mock)
	_, _, err = repo.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetadataRepositoryDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM video_metadata").
		WithArgs("doc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewMetadataRepository(mock)
	assert.NoError(t, repo.Delete(context.Background(), "doc-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetadataRepositorySaveLoadRoundTrip(t *testing.T) {
	// The JSONB payload written by Save must decode back into equivalent
	// indices through Load.
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	result := sampleResult()
	var savedFrames, savedTranscript []byte
	mock.ExpectExec("INSERT INTO video_metadata").
		WithArgs("doc-1", 3.0, 2.0, 6, 2, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewMetadataRepository(mock)
	require.NoError(t, repo.Save(context.Background(), "doc-1", result))

	// Feed the same wire format back through Load.
	savedFrames = mustMarshal(t, result.FrameDescriptions)
	savedTranscript = mustMarshal(t, result.Transcript)
	mock.ExpectQuery("SELECT frame_descriptions, transcript FROM video_metadata").
		WithArgs("doc-1").
		WillReturnRows(pgxmock.NewRows([]string{"frame_descriptions", "transcript"}).
			AddRow(savedFrames, savedTranscript))

	frames, transcript, err := repo.Load(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, result.FrameDescriptions.Entries(), frames.Entries())
	assert.Equal(t, result.Transcript.Entries(), transcript.Entries())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS video_metadata").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, EnsureSchema(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}
