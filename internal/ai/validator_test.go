package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/domain/entity"
)

type stubProvider struct {
	content string
	err     error
	last    port.ProviderRequest
	calls   int
}

func (p *stubProvider) GetResponse(ctx context.Context, req port.ProviderRequest) (*port.ProviderResponse, error) {
	p.calls++
	p.last = req
	if p.err != nil {
		return nil, p.err
	}
	return &port.ProviderResponse{
		Content:    p.content,
		Model:      "stub-model",
		TokensUsed: 120,
		Cost:       0.00024,
		Confidence: 0.9,
	}, nil
}

func newTestValidator(t *testing.T, provider port.ContentGenerationProvider) *Validator {
	t.Helper()
	v, err := NewValidator(builtins[0], provider, zap.NewNop())
	require.NoError(t, err)
	return v
}

var chapterCtx = map[string]interface{}{"content_type": "chapter", "project_id": "book-1"}

const threeFindings = `{
  "quality_score": 82,
  "summary": "Mostly fine",
  "findings": [
    {"severity": "low", "type": "content-quality", "title": "Long sentence", "message": "Split it", "confidence": 0.4},
    {"severity": "HIGH", "type": "tone-consistency", "title": "Tense shift", "message": "Past to present", "location": "para 3", "remediation": "Keep past tense", "confidence": 0.95},
    {"severity": "MEDIUM", "type": "made-up", "title": "Repetition", "message": "Same phrase twice"}
  ]
}`

func TestValidatorConvertsFindings(t *testing.T) {
	provider := &stubProvider{content: threeFindings}
	v := newTestValidator(t, provider)

	res, err := v.Validate(context.Background(), map[string]interface{}{"content": "text"}, chapterCtx)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusCompleted, res.Status)
	require.Len(t, res.Findings, 3)

	assert.Equal(t, entity.SeverityLow, res.Findings[0].Severity)
	assert.Equal(t, entity.FindingTypeToneConsistency, res.Findings[1].Type)
	assert.Equal(t, "para 3", res.Findings[1].Location)
	assert.Equal(t, "Keep past tense", res.Findings[1].Remediation)
	// unknown types fall back to the validator's own type
	assert.Equal(t, entity.FindingTypeContentQuality, res.Findings[2].Type)
	assert.Equal(t, defaultFindingConfidence, res.Findings[2].Confidence)

	for _, f := range res.Findings {
		assert.Equal(t, ContentQualityID, f.ValidatorID)
		assert.NotEmpty(t, f.ID)
	}

	assert.Equal(t, entity.AIUsage{TokensUsed: 120, Cost: 0.00024, Requests: 1}, res.AIUsage)
	assert.Equal(t, "stub-model", res.Metrics["model"])
	assert.Equal(t, 82.0, res.Metrics["reported_quality_score"])
	assert.Equal(t, "Mostly fine", res.Metadata["summary"])

	assert.Equal(t, ContentQualityID, provider.last.ValidatorID)
	assert.Equal(t, "chapter", provider.last.ContentType)
	assert.Empty(t, provider.last.Scenario)
	assert.Equal(t, port.CacheKey(provider.last), res.Metadata["cache_key"])
}

func TestValidatorSkipsMalformedFindings(t *testing.T) {
	provider := &stubProvider{content: `{"findings": [
		{"severity": "SEVERE", "title": "bad severity"},
		{"severity": "LOW", "title": "  "},
		{"severity": "INFO", "title": "Fine", "message": "ok", "confidence": 1}
	]}`}
	v := newTestValidator(t, provider)

	res, err := v.Validate(context.Background(), map[string]interface{}{}, chapterCtx)
	require.NoError(t, err)

	require.Len(t, res.Findings, 1)
	assert.Equal(t, "Fine", res.Findings[0].Title)
	assert.Equal(t, 2, res.Metrics["malformed_findings"])
	assert.Equal(t, entity.StatusCompleted, res.Status)
}

func TestValidatorUnparsableResponse(t *testing.T) {
	provider := &stubProvider{content: "I'm sorry, I cannot review this text."}
	v := newTestValidator(t, provider)

	res, err := v.Validate(context.Background(), map[string]interface{}{}, chapterCtx)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusFailed, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, entity.SeverityMedium, res.Findings[0].Severity)
	assert.Equal(t, entity.FindingTypeAIOutputQuality, res.Findings[0].Type)
	assert.Equal(t, 1, res.AIUsage.Requests)
}

func TestValidatorProviderError(t *testing.T) {
	sentinel := errors.New("rate limited")
	v := newTestValidator(t, &stubProvider{err: sentinel})

	res, err := v.Validate(context.Background(), map[string]interface{}{}, chapterCtx)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), ContentQualityID)
}

func TestValidatorMinConfidenceAndMaxFindings(t *testing.T) {
	provider := &stubProvider{content: threeFindings}
	v := newTestValidator(t, provider)

	require.NoError(t, v.Initialize(map[string]interface{}{"min_confidence": 0.5}))
	res, err := v.Validate(context.Background(), map[string]interface{}{}, chapterCtx)
	require.NoError(t, err)
	require.Len(t, res.Findings, 2)
	assert.Equal(t, 1, res.Metrics["dropped_findings"])

	require.NoError(t, v.Initialize(map[string]interface{}{"max_findings": 1}))
	res, err = v.Validate(context.Background(), map[string]interface{}{}, chapterCtx)
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, entity.SeverityHigh, res.Findings[0].Severity)
	assert.Equal(t, 2, res.Metrics["dropped_findings"])
}

func TestValidatorInitialize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     map[string]interface{}
		wantErr bool
	}{
		{"empty", map[string]interface{}{}, false},
		{"nil", nil, false},
		{"scenario", map[string]interface{}{"scenario": "low_quality"}, false},
		{"unknown scenario", map[string]interface{}{"scenario": "CHAOS"}, true},
		{"scenario not string", map[string]interface{}{"scenario": 3}, true},
		{"confidence int", map[string]interface{}{"min_confidence": 1}, false},
		{"confidence too high", map[string]interface{}{"min_confidence": 1.5}, true},
		{"confidence string", map[string]interface{}{"min_confidence": "high"}, true},
		{"max findings", map[string]interface{}{"max_findings": 10.0}, false},
		{"max findings negative", map[string]interface{}{"max_findings": -1}, true},
		{"max findings fractional", map[string]interface{}{"max_findings": 2.5}, true},
		{"model hint", map[string]interface{}{"model_hint": "be strict"}, false},
		{"model hint not string", map[string]interface{}{"model_hint": true}, true},
		{"unknown keys ignored", map[string]interface{}{"colour": "blue"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestValidator(t, &stubProvider{})
			err := v.Initialize(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatorScenarioAndHintReachProvider(t *testing.T) {
	provider := &stubProvider{content: `{"findings": []}`}
	v := newTestValidator(t, provider)
	require.NoError(t, v.Initialize(map[string]interface{}{
		"scenario":   "edge_case",
		"model_hint": "focus on dialogue",
	}))

	vctx := map[string]interface{}{
		"content_type":     "project",
		"validation_rules": map[string]interface{}{"max_chapter_words": 5000},
	}
	_, err := v.Validate(context.Background(), map[string]interface{}{"title": "Dune"}, vctx)
	require.NoError(t, err)

	assert.Equal(t, port.ScenarioEdgeCase, provider.last.Scenario)
	assert.Contains(t, provider.last.Prompt, "focus on dialogue")
	assert.Contains(t, provider.last.Prompt, "max_chapter_words")
	assert.Contains(t, provider.last.Prompt, `"title": "Dune"`)
	assert.Contains(t, provider.last.Prompt, "Content type: project")
}

func TestPromptIsDeterministic(t *testing.T) {
	content := map[string]interface{}{"b": 2, "a": 1, "c": map[string]interface{}{"z": 1, "y": 2}}
	first := buildPrompt(builtins[0], content, chapterCtx, "")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, buildPrompt(builtins[0], content, chapterCtx, ""))
	}
}

func TestPromptSelectsFields(t *testing.T) {
	spec := Spec{ID: "x", FindingType: entity.FindingTypeOutlineAdherence, Fields: []string{"outline"}}

	prompt := buildPrompt(spec, map[string]interface{}{"outline": "o", "secret": "s"}, nil, "")
	assert.Contains(t, prompt, `"outline"`)
	assert.NotContains(t, prompt, `"secret"`)

	// no named field present: the whole document is sent
	prompt = buildPrompt(spec, map[string]interface{}{"secret": "s"}, nil, "")
	assert.Contains(t, prompt, `"secret"`)
}

func TestNewValidatorRejectsBadInput(t *testing.T) {
	_, err := NewValidator(Spec{}, &stubProvider{}, nil)
	assert.Error(t, err)

	_, err = NewValidator(builtins[0], nil, nil)
	assert.Error(t, err)

	_, err = NewValidator(Spec{ID: "x", FindingType: "nope"}, &stubProvider{}, nil)
	assert.Error(t, err)
}

func TestValidatorInfo(t *testing.T) {
	v := newTestValidator(t, &stubProvider{})
	info := v.Info()

	assert.Equal(t, ContentQualityID, info.ID)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, []string{"project", "chapter"}, info.SupportedTypes)

	types := v.SupportedContentTypes()
	types[0] = "mutated"
	assert.Equal(t, "project", v.SupportedContentTypes()[0])
}

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	ids := CatalogIDs()
	require.Len(t, catalog, len(ids))

	for _, id := range ids {
		factory, ok := catalog[id]
		require.True(t, ok, id)

		v, err := factory(&stubProvider{}, nil)
		require.NoError(t, err)
		assert.Equal(t, id, v.Info().ID)
		assert.NotEmpty(t, v.SupportedContentTypes())
	}

	assert.IsIncreasing(t, ids)
}
