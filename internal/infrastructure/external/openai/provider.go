package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/ai"
	"github.com/garyjia/content-validation/internal/application/port"
)

const defaultModel = "gpt-4o-mini"

// Config configures the OpenAI provider
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	// Timeout bounds each chat completion; zero means no extra deadline
	Timeout   time.Duration
	CostPer1K float64
	Prompts   PromptConfig
}

// Provider implements port.ContentGenerationProvider with chat completions
// in JSON mode
type Provider struct {
	client *openai.Client
	cfg    Config
	logger *zap.Logger
}

// NewProvider creates an OpenAI-backed provider
func NewProvider(cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Prompts.System == "" {
		cfg.Prompts.System = ai.SystemPrompt()
	}
	if cfg.Prompts.UserTemplate == "" {
		cfg.Prompts.UserTemplate = DefaultUserTemplate
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// GetResponse runs one chat completion for req. Scenario is ignored.
func (p *Provider) GetResponse(ctx context.Context, req port.ProviderRequest) (*port.ProviderResponse, error) {
	user, err := renderTemplate(p.cfg.Prompts.UserTemplate, promptData{
		Prompt:      req.Prompt,
		ValidatorID: req.ValidatorID,
		ContentType: req.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt for %s: %w", req.ValidatorID, err)
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	p.logger.Debug("Requesting analysis",
		zap.String("validator_id", req.ValidatorID),
		zap.String("content_type", req.ContentType),
		zap.String("model", p.cfg.Model))

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: p.cfg.Prompts.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		p.logger.Error("OpenAI API call failed",
			zap.String("validator_id", req.ValidatorID),
			zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	choice := resp.Choices[0]
	tokens := resp.Usage.TotalTokens

	p.logger.Info("Analysis received",
		zap.String("validator_id", req.ValidatorID),
		zap.String("model", resp.Model),
		zap.Int("tokens_used", tokens),
		zap.String("finish_reason", string(choice.FinishReason)))

	return &port.ProviderResponse{
		Content:    choice.Message.Content,
		Model:      resp.Model,
		TokensUsed: tokens,
		Cost:       float64(tokens) / 1000 * p.cfg.CostPer1K,
		Confidence: confidenceFor(choice.FinishReason),
		Metadata: map[string]interface{}{
			"response_id":       resp.ID,
			"finish_reason":     string(choice.FinishReason),
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
		},
	}, nil
}

// confidenceFor lowers confidence when the answer was cut short
func confidenceFor(reason openai.FinishReason) float64 {
	switch reason {
	case openai.FinishReasonStop:
		return 0.9
	case openai.FinishReasonLength:
		return 0.4
	default:
		return 0.6
	}
}
