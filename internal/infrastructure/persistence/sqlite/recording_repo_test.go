package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/infrastructure/external/scenario"
	"github.com/garyjia/content-validation/pkg/database"
)

func newRepo(t *testing.T) (*RecordingRepository, *database.DB) {
	t.Helper()
	db, err := Open(context.Background(), database.Config{Path: database.MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRecordingRepository(db.DB, zap.NewNop()), db
}

func sampleRecording(key string) *port.Recording {
	return &port.Recording{
		Key:         key,
		ValidatorID: "content-quality",
		ContentType: "chapter",
		Response: port.ProviderResponse{
			Content:    `{"findings":[]}`,
			Model:      "gpt-4o-mini",
			TokensUsed: 321,
			Cost:       0.000642,
			Confidence: 0.9,
			Metadata:   map[string]interface{}{"finish_reason": "stop"},
		},
		RecordedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordingRepositoryPutGet(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	require.NoError(t, repo.Put(ctx, sampleRecording("k1")))

	got, err := repo.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "content-quality", got.ValidatorID)
	assert.Equal(t, "chapter", got.ContentType)
	assert.Equal(t, `{"findings":[]}`, got.Response.Content)
	assert.Equal(t, 321, got.Response.TokensUsed)
	assert.InDelta(t, 0.000642, got.Response.Cost, 1e-12)
	assert.Equal(t, "stop", got.Response.Metadata["finish_reason"])
	assert.True(t, got.RecordedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestRecordingRepositoryUpsertAndCount(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, repo.Put(ctx, sampleRecording("k1")))
	replacement := sampleRecording("k1")
	replacement.Response.Content = "replaced"
	require.NoError(t, repo.Put(ctx, replacement))
	require.NoError(t, repo.Put(ctx, sampleRecording("k2")))

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "replaced", got.Response.Content)
}

func TestRecordingRepositoryNotFound(t *testing.T) {
	repo, _ := newRepo(t)
	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, port.ErrRecordingNotFound)
}

func TestRecordingRepositoryNilMetadata(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	rec := sampleRecording("k")
	rec.Response.Metadata = nil
	require.NoError(t, repo.Put(ctx, rec))

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got.Response.Metadata)
}

func TestRecordingRepositoryResourceErrors(t *testing.T) {
	ctx := context.Background()
	repo, db := newRepo(t)
	require.NoError(t, db.Close())

	err := repo.Put(ctx, sampleRecording("k"))
	var resErr *port.ResourceError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "put", resErr.Op)

	_, err = repo.Count(ctx)
	assert.True(t, errors.As(err, &resErr))

	assert.Error(t, repo.Put(ctx, &port.Recording{}))
}

func TestOpenReportsResourceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "nested", "db.sqlite")
	_, err := Open(context.Background(), database.Config{Path: path, MaxOpenConns: 1}, nil)

	var resErr *port.ResourceError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "open", resErr.Op)
}

func TestRecorderOverSQLite(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)
	upstream := scenario.NewProvider()

	recorder, err := scenario.NewRecorder(scenario.ModeRecord, upstream, repo, nil)
	require.NoError(t, err)
	req := port.ProviderRequest{Prompt: "p", ValidatorID: "content-quality", ContentType: "project"}
	recorded, err := recorder.GetResponse(ctx, req)
	require.NoError(t, err)

	player, err := scenario.NewRecorder(scenario.ModePlayback, nil, repo, nil)
	require.NoError(t, err)
	played, err := player.GetResponse(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, recorded.Content, played.Content)
	assert.Equal(t, recorded.TokensUsed, played.TokensUsed)
	assert.Equal(t, "SUCCESS", played.Metadata["scenario"])
}
