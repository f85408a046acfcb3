package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/domain/entity"
)

const (
	// DefaultMinConfidence keeps every finding the provider reports
	DefaultMinConfidence = 0.0

	defaultFindingConfidence = 0.8
)

// Spec describes one provider-backed validator
type Spec struct {
	ID           string
	Name         string
	Version      string
	FindingType  entity.FindingType
	ContentTypes []string
	// Instruction tells the model what to look for
	Instruction string
	// Fields narrows the content sent to the provider; empty sends everything
	Fields []string
}

// settings is the per-validator slice of validator_configs
type settings struct {
	scenario      port.Scenario
	minConfidence float64
	maxFindings   int
	modelHint     string
}

// Validator asks a ContentGenerationProvider to review content and turns its
// JSON answer into findings
type Validator struct {
	spec     Spec
	provider port.ContentGenerationProvider
	logger   *zap.Logger

	mu       sync.RWMutex
	settings settings
}

// NewValidator creates a validator for spec backed by provider
func NewValidator(spec Spec, provider port.ContentGenerationProvider, logger *zap.Logger) (*Validator, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("validator spec has no id")
	}
	if provider == nil {
		return nil, fmt.Errorf("validator %s: provider is required", spec.ID)
	}
	if !spec.FindingType.IsValid() {
		return nil, fmt.Errorf("validator %s: unknown finding type %q", spec.ID, spec.FindingType)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Validator{
		spec:     spec,
		provider: provider,
		logger:   logger.With(zap.String("validator_id", spec.ID)),
		settings: settings{minConfidence: DefaultMinConfidence},
	}, nil
}

// Initialize applies the validator's config. Recognised keys are scenario,
// min_confidence, max_findings and model_hint; others are ignored.
func (v *Validator) Initialize(cfg map[string]interface{}) error {
	s := settings{minConfidence: DefaultMinConfidence}

	if raw, ok := cfg["scenario"]; ok {
		name, isString := raw.(string)
		sc := port.Scenario(strings.ToUpper(strings.TrimSpace(name)))
		if !isString || !sc.IsValid() {
			return fmt.Errorf("validator %s: invalid scenario %v", v.spec.ID, raw)
		}
		s.scenario = sc
	}

	if raw, ok := cfg["min_confidence"]; ok {
		f, isNum := toFloat(raw)
		if !isNum || f < 0 || f > 1 {
			return fmt.Errorf("validator %s: min_confidence must be a number in [0,1], got %v", v.spec.ID, raw)
		}
		s.minConfidence = f
	}

	if raw, ok := cfg["max_findings"]; ok {
		f, isNum := toFloat(raw)
		if !isNum || f < 0 || f != float64(int(f)) {
			return fmt.Errorf("validator %s: max_findings must be a non-negative integer, got %v", v.spec.ID, raw)
		}
		s.maxFindings = int(f)
	}

	if raw, ok := cfg["model_hint"]; ok {
		hint, isString := raw.(string)
		if !isString {
			return fmt.Errorf("validator %s: model_hint must be a string, got %T", v.spec.ID, raw)
		}
		s.modelHint = hint
	}

	v.mu.Lock()
	v.settings = s
	v.mu.Unlock()

	v.logger.Debug("Validator initialized",
		zap.String("scenario", string(s.scenario)),
		zap.Float64("min_confidence", s.minConfidence),
		zap.Int("max_findings", s.maxFindings))
	return nil
}

// Validate sends content to the provider and converts the answer into a
// result. Provider errors are returned; an unparsable answer is reported as
// a FAILED result with one ai-output-quality finding.
func (v *Validator) Validate(ctx context.Context, content map[string]interface{}, vctx map[string]interface{}) (*entity.ValidatorResult, error) {
	v.mu.RLock()
	s := v.settings
	v.mu.RUnlock()

	contentType, _ := vctx["content_type"].(string)
	req := port.ProviderRequest{
		Prompt:      buildPrompt(v.spec, content, vctx, s.modelHint),
		ValidatorID: v.spec.ID,
		ContentType: contentType,
		Scenario:    s.scenario,
	}

	start := time.Now()
	resp, err := v.provider.GetResponse(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("validator %s: provider request failed: %w", v.spec.ID, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("validator %s: provider returned no response", v.spec.ID)
	}

	result := entity.NewValidatorResult(v.spec.ID)
	result.AIUsage = entity.AIUsage{TokensUsed: resp.TokensUsed, Cost: resp.Cost, Requests: 1}
	result.Metrics["model"] = resp.Model
	result.Metrics["provider_confidence"] = resp.Confidence
	result.Metrics["provider_latency_ms"] = time.Since(start).Milliseconds()
	result.Metadata["cache_key"] = port.CacheKey(req)

	payload, err := parsePayload(resp.Content)
	if err != nil {
		v.logger.Warn("Provider answer could not be parsed", zap.Error(err))
		result.Status = entity.StatusFailed
		result.AddFinding(entity.NewFinding(v.spec.ID, entity.FindingTypeAIOutputQuality, entity.SeverityMedium,
			"Unparsable provider response",
			fmt.Sprintf("The analysis returned by %s was not valid JSON", resp.Model), 1.0).
			WithMetadata("error_message", err.Error()).
			WithMetadata("raw_length", len(resp.Content)))
		return result, nil
	}

	findings, malformed, dropped := v.convert(payload.Findings, s)
	for _, f := range findings {
		result.AddFinding(f)
	}

	result.Metrics["malformed_findings"] = malformed
	result.Metrics["dropped_findings"] = dropped
	if payload.QualityScore != nil {
		result.Metrics["reported_quality_score"] = *payload.QualityScore
	}
	if payload.Summary != "" {
		result.Metadata["summary"] = payload.Summary
	}

	v.logger.Debug("Validator finished",
		zap.Int("findings", len(result.Findings)),
		zap.Int("malformed_findings", malformed),
		zap.Int("dropped_findings", dropped),
		zap.Int("tokens_used", resp.TokensUsed))

	return result, nil
}

// convert maps payload findings to entity findings, skipping malformed ones,
// filtering by confidence and capping the count by severity
func (v *Validator) convert(items []payloadFinding, s settings) (findings []entity.Finding, malformed, dropped int) {
	for _, item := range items {
		sev, err := entity.ParseSeverity(item.Severity)
		if err != nil || strings.TrimSpace(item.Title) == "" {
			malformed++
			continue
		}

		confidence := defaultFindingConfidence
		if item.Confidence != nil {
			confidence = *item.Confidence
		}
		if confidence < s.minConfidence {
			dropped++
			continue
		}

		findingType := entity.FindingType(strings.ToLower(strings.TrimSpace(item.Type)))
		if !findingType.IsValid() {
			findingType = v.spec.FindingType
		}

		f := entity.NewFinding(v.spec.ID, findingType, sev, item.Title, item.Message, confidence)
		if item.Location != "" {
			f = f.WithLocation(item.Location)
		}
		if item.Remediation != "" {
			f = f.WithRemediation(item.Remediation)
		}
		findings = append(findings, f)
	}

	if s.maxFindings > 0 && len(findings) > s.maxFindings {
		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Severity.Rank() > findings[j].Severity.Rank()
		})
		dropped += len(findings) - s.maxFindings
		findings = findings[:s.maxFindings]
	}
	return findings, malformed, dropped
}

// SupportedContentTypes lists the content types the validator understands
func (v *Validator) SupportedContentTypes() []string {
	out := make([]string, len(v.spec.ContentTypes))
	copy(out, v.spec.ContentTypes)
	return out
}

// Info returns the validator's identity
func (v *Validator) Info() port.ValidatorInfo {
	return port.ValidatorInfo{
		ID:             v.spec.ID,
		Name:           v.spec.Name,
		Version:        v.spec.Version,
		SupportedTypes: v.SupportedContentTypes(),
	}
}

// toFloat accepts the numeric types yaml and json decoders produce
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
