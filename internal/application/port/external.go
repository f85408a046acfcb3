package port

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Scenario selects the behaviour of a deterministic provider
type Scenario string

const (
	ScenarioSuccess         Scenario = "SUCCESS"
	ScenarioHighQuality     Scenario = "HIGH_QUALITY"
	ScenarioLowQuality      Scenario = "LOW_QUALITY"
	ScenarioFailure         Scenario = "FAILURE"
	ScenarioTimeout         Scenario = "TIMEOUT"
	ScenarioRateLimit       Scenario = "RATE_LIMIT"
	ScenarioInvalidResponse Scenario = "INVALID_RESPONSE"
	ScenarioPartialFailure  Scenario = "PARTIAL_FAILURE"
	ScenarioEdgeCase        Scenario = "EDGE_CASE"
)

// IsValid returns true for known scenarios
func (s Scenario) IsValid() bool {
	switch s {
	case ScenarioSuccess, ScenarioHighQuality, ScenarioLowQuality, ScenarioFailure,
		ScenarioTimeout, ScenarioRateLimit, ScenarioInvalidResponse,
		ScenarioPartialFailure, ScenarioEdgeCase:
		return true
	default:
		return false
	}
}

// ProviderRequest is one analysis request made by a validator.
// Scenario is empty unless a validator pins one.
type ProviderRequest struct {
	Prompt      string   `json:"prompt"`
	ValidatorID string   `json:"validator_id"`
	ContentType string   `json:"content_type"`
	Scenario    Scenario `json:"scenario,omitempty"`
}

// ProviderResponse is the provider's answer to a ProviderRequest
type ProviderResponse struct {
	Content    string                 `json:"content"`
	Model      string                 `json:"model"`
	TokensUsed int                    `json:"tokens_used"`
	Cost       float64                `json:"cost"`
	Confidence float64                `json:"confidence"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ContentGenerationProvider is the AI backend validators call to analyse content
type ContentGenerationProvider interface {
	GetResponse(ctx context.Context, req ProviderRequest) (*ProviderResponse, error)
}

// CacheKey returns the stable replay key of a request: hex sha256 over the
// prompt, validator id and content type. Scenario is not part of the key.
func CacheKey(req ProviderRequest) string {
	h := sha256.New()
	for _, part := range []string{req.Prompt, req.ValidatorID, req.ContentType} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ReviewRequest is sent to humans when a validation needs review
type ReviewRequest struct {
	ValidationID     string
	ProjectID        string
	QualityScore     float64
	Threshold        float64
	CriticalFindings int
	TotalFindings    int
}

// ReviewNotifier delivers human review requests
type ReviewNotifier interface {
	NotifyReview(ctx context.Context, req ReviewRequest) error
}
