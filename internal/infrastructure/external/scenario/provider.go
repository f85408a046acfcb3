package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
)

const (
	// Model is reported as the model of every scenario response
	Model = "scenario-provider"

	// CostPer1KTokens is the simulated price
	CostPer1KTokens = 0.002

	defaultTimeoutDelay = 2 * time.Second
	charsPerToken       = 4
)

var (
	// ErrProviderFailure is returned by the FAILURE scenario
	ErrProviderFailure = errors.New("scenario provider failure")

	// ErrTimeout is returned by the TIMEOUT scenario after its delay
	ErrTimeout = errors.New("scenario provider timeout")

	// ErrRateLimited is returned by the RATE_LIMIT scenario
	ErrRateLimited = errors.New("scenario provider rate limited")
)

// Provider is a deterministic ContentGenerationProvider driven by scenarios.
// The scenario of a request is taken from the request itself, else from the
// per-validator override, else the default.
type Provider struct {
	defaultScenario    port.Scenario
	validatorScenarios map[string]port.Scenario
	timeoutDelay       time.Duration
	logger             *zap.Logger

	mu    sync.Mutex
	calls map[string]int
}

// Option configures a Provider
type Option func(*Provider)

// WithDefaultScenario sets the scenario used when nothing more specific applies
func WithDefaultScenario(s port.Scenario) Option {
	return func(p *Provider) {
		p.defaultScenario = s
	}
}

// WithValidatorScenario pins a scenario for one validator id
func WithValidatorScenario(validatorID string, s port.Scenario) Option {
	return func(p *Provider) {
		p.validatorScenarios[validatorID] = s
	}
}

// WithTimeoutDelay sets how long the TIMEOUT scenario blocks
func WithTimeoutDelay(d time.Duration) Option {
	return func(p *Provider) {
		p.timeoutDelay = d
	}
}

// WithLogger sets the logger; nil is ignored
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider creates a scenario provider defaulting to SUCCESS
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		defaultScenario:    port.ScenarioSuccess,
		validatorScenarios: make(map[string]port.Scenario),
		timeoutDelay:       defaultTimeoutDelay,
		logger:             zap.NewNop(),
		calls:              make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetResponse answers req according to its resolved scenario
func (p *Provider) GetResponse(ctx context.Context, req port.ProviderRequest) (*port.ProviderResponse, error) {
	p.mu.Lock()
	p.calls[req.ValidatorID]++
	p.mu.Unlock()

	sc := p.resolve(req)
	p.logger.Debug("Scenario response",
		zap.String("validator_id", req.ValidatorID),
		zap.String("scenario", string(sc)))

	switch sc {
	case port.ScenarioFailure:
		return nil, fmt.Errorf("%w: validator %s", ErrProviderFailure, req.ValidatorID)
	case port.ScenarioRateLimit:
		return nil, fmt.Errorf("%w: retry later", ErrRateLimited)
	case port.ScenarioTimeout:
		timer := time.NewTimer(p.timeoutDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, fmt.Errorf("%w after %s", ErrTimeout, p.timeoutDelay)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, ok := payloads[sc]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", sc)
	}

	tokens := estimateTokens(req.Prompt) + estimateTokens(content)
	return &port.ProviderResponse{
		Content:    content,
		Model:      Model,
		TokensUsed: tokens,
		Cost:       float64(tokens) / 1000 * CostPer1KTokens,
		Confidence: confidenceFor(sc),
		Metadata: map[string]interface{}{
			"scenario": string(sc),
		},
	}, nil
}

// Calls returns how many requests validatorID has made
func (p *Provider) Calls(validatorID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[validatorID]
}

// TotalCalls returns the number of requests across all validators
func (p *Provider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

// Reset clears the call counters
func (p *Provider) Reset() {
	p.mu.Lock()
	p.calls = make(map[string]int)
	p.mu.Unlock()
}

func (p *Provider) resolve(req port.ProviderRequest) port.Scenario {
	if req.Scenario != "" {
		return req.Scenario
	}
	if sc, ok := p.validatorScenarios[req.ValidatorID]; ok {
		return sc
	}
	return p.defaultScenario
}

func confidenceFor(sc port.Scenario) float64 {
	switch sc {
	case port.ScenarioHighQuality:
		return 0.97
	case port.ScenarioLowQuality, port.ScenarioPartialFailure:
		return 0.7
	case port.ScenarioInvalidResponse:
		return 0.2
	case port.ScenarioEdgeCase:
		return 0.5
	default:
		return 0.9
	}
}

func estimateTokens(s string) int {
	n := utf8.RuneCountInString(s) / charsPerToken
	if n == 0 && s != "" {
		return 1
	}
	return n
}
