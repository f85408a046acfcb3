package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/ai"
	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/config"
	"github.com/garyjia/content-validation/internal/infrastructure/external/scenario"
	"github.com/garyjia/content-validation/pkg/database"
)

func testConfig(mode string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 18080},
		Database: config.DatabaseConfig{Path: database.MemoryPath, MaxOpenConns: 1},
		Metrics:  config.MetricsConfig{Enabled: true, Namespace: "test"},
		Provider: config.ProviderConfig{Mode: mode, DefaultScenario: "SUCCESS"},
		Validation: config.ValidationFile{
			ProjectID: "proj-1",
		},
	}
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(config.ProviderModeScenario), nil)
	assert.Error(t, err)

	cfg := testConfig("carrier-pigeon")
	_, err = NewContainer(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestContainer_ScenarioLifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(config.ProviderModeScenario), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, c.Ready())

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()), "second start must fail")

	infos := c.Engine().GetRegisteredValidators()
	assert.Len(t, infos, len(ai.CatalogIDs()))
	assert.Nil(t, c.Providers().DB)

	health := c.Health()
	assert.True(t, health.Overall)
	assert.True(t, health.Components["engine"].Healthy)
	_, hasDB := health.Components["database"]
	assert.False(t, hasDB)

	w := httptest.NewRecorder()
	c.Server().Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(context.Background()))
}

func TestContainer_ValidatesThroughEngine(t *testing.T) {
	c, err := NewContainer(testConfig(config.ProviderModeScenario), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := c.Engine().ValidateProject(ctx, map[string]interface{}{
		"title": "Field Notes",
		"body":  "A short chapter.",
	}, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", result.ProjectID)
	assert.NotEmpty(t, result.ValidatorResults)
}

func TestContainer_PlaybackOpensDatabase(t *testing.T) {
	c, err := NewContainer(testConfig(config.ProviderModePlayback), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	bundle := c.Providers()
	require.NotNil(t, bundle.DB)
	require.NotNil(t, bundle.Recorder)
	assert.Equal(t, scenario.ModePlayback, bundle.Recorder.Mode())

	health := c.Health()
	assert.True(t, health.Components["database"].Healthy)

	require.NoError(t, c.Close())
	assert.Nil(t, bundle.DB)
}

func TestProvideProvider_RecordNeedsKey(t *testing.T) {
	cfg := testConfig(config.ProviderModeRecord)
	_, err := ProvideProvider(context.Background(), cfg, config.DefaultValidationConfig("proj-1"), zap.NewNop())
	assert.Error(t, err)
}

func TestProvideMetrics_Disabled(t *testing.T) {
	assert.Nil(t, ProvideMetrics(config.MetricsConfig{}, nil))
}

func TestProvideReviewNotifications_Disabled(t *testing.T) {
	enabled, err := ProvideReviewNotifications(config.LarkConfig{}, nil, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestRequestTimeout(t *testing.T) {
	vcfg := config.DefaultValidationConfig("proj-1")
	vcfg.RequestTimeout = 45

	t.Run("falls back to validation request_timeout", func(t *testing.T) {
		assert.Equal(t, 45*time.Second, RequestTimeout(config.OpenAIConfig{}, vcfg))
	})

	t.Run("openai timeout wins when set", func(t *testing.T) {
		assert.Equal(t, 10*time.Second, RequestTimeout(config.OpenAIConfig{Timeout: 10 * time.Second}, vcfg))
	})

	t.Run("zero without either", func(t *testing.T) {
		vcfg := config.DefaultValidationConfig("proj-1")
		vcfg.RequestTimeout = 0
		assert.Zero(t, RequestTimeout(config.OpenAIConfig{}, vcfg))
		assert.Zero(t, RequestTimeout(config.OpenAIConfig{}, nil))
	})
}

func TestProvideOpenAI_UsesRequestTimeout(t *testing.T) {
	vcfg := config.DefaultValidationConfig("proj-1")
	vcfg.RequestTimeout = 1

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	p, err := ProvideOpenAI(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}, vcfg, zap.NewNop())
	require.NoError(t, err)

	start := time.Now()
	_, err = p.GetResponse(context.Background(), port.ProviderRequest{Prompt: "p", ValidatorID: "content-quality"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Positive(t, hits.Load())
}
