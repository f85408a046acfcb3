package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/content-validation/internal/application/port"
)

type failingStore struct {
	*MemoryStore
}

func (s *failingStore) Put(ctx context.Context, rec *port.Recording) error {
	return errors.New("disk full")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Playback ")
	require.NoError(t, err)
	assert.Equal(t, ModePlayback, m)

	_, err = ParseMode("replay")
	assert.Error(t, err)
}

func TestNewRecorderValidation(t *testing.T) {
	_, err := NewRecorder(ModeRecord, NewProvider(), nil, nil)
	assert.Error(t, err)

	_, err = NewRecorder(ModeRecord, nil, NewMemoryStore(), nil)
	assert.Error(t, err)

	_, err = NewRecorder("replay", NewProvider(), NewMemoryStore(), nil)
	assert.Error(t, err)

	_, err = NewRecorder(ModePlayback, nil, NewMemoryStore(), nil)
	assert.NoError(t, err)

	_, err = NewRecorder(ModePassthrough, NewProvider(), nil, nil)
	assert.NoError(t, err)
}

func TestRecordThenPlayback(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	upstream := NewProvider(WithDefaultScenario(port.ScenarioLowQuality))

	rec, err := NewRecorder(ModeRecord, upstream, store, nil)
	require.NoError(t, err)

	req := request("quality", "")
	recorded, err := rec.GetResponse(ctx, req)
	require.NoError(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := store.Get(ctx, port.CacheKey(req))
	require.NoError(t, err)
	assert.Equal(t, "quality", stored.ValidatorID)
	assert.Equal(t, "chapter", stored.ContentType)
	assert.False(t, stored.RecordedAt.IsZero())

	player, err := NewRecorder(ModePlayback, nil, store, nil)
	require.NoError(t, err)

	// scenario is not part of the key, so playback ignores it
	req.Scenario = port.ScenarioFailure
	for i := 0; i < 3; i++ {
		played, err := player.GetResponse(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, recorded, played)
	}
	assert.Equal(t, 1, upstream.TotalCalls())
}

func TestPlaybackMiss(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	player, err := NewRecorder(ModePlayback, nil, NewMemoryStore(), zap.New(core))
	require.NoError(t, err)

	_, err = player.GetResponse(context.Background(), request("quality", ""))
	assert.ErrorIs(t, err, port.ErrRecordingNotFound)
	assert.Equal(t, 1, logs.FilterMessage("No recording for request").Len())
}

func TestRecordPropagatesUpstreamAndStoreErrors(t *testing.T) {
	ctx := context.Background()

	rec, err := NewRecorder(ModeRecord, NewProvider(WithDefaultScenario(port.ScenarioFailure)), NewMemoryStore(), nil)
	require.NoError(t, err)
	_, err = rec.GetResponse(ctx, request("v", ""))
	assert.ErrorIs(t, err, ErrProviderFailure)

	rec, err = NewRecorder(ModeRecord, NewProvider(), &failingStore{MemoryStore: NewMemoryStore()}, nil)
	require.NoError(t, err)
	_, err = rec.GetResponse(ctx, request("v", ""))
	assert.ErrorContains(t, err, "disk full")
}

func TestPassthrough(t *testing.T) {
	upstream := NewProvider()
	rec, err := NewRecorder(ModePassthrough, upstream, nil, nil)
	require.NoError(t, err)

	_, err = rec.GetResponse(context.Background(), request("v", ""))
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.Calls("v"))
	assert.Equal(t, ModePassthrough, rec.Mode())
}

func TestMemoryStoreRejectsEmptyKey(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.Put(context.Background(), &port.Recording{}))
	assert.Error(t, s.Put(context.Background(), nil))
}
