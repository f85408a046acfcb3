package port

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/domain/entity"
)

// ValidatorInfo describes a registered validator
type ValidatorInfo struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	SupportedTypes []string `json:"supported_types"`
}

// Validator is a pluggable content inspection unit.
//
// Implementations must treat content and vctx as read-only and keep no
// per-call state: the engine may run one instance from several goroutines.
type Validator interface {
	// Initialize receives the validator's own slice of validator_configs
	Initialize(cfg map[string]interface{}) error

	// Validate inspects content. vctx carries project_id, validation_id,
	// content_type and the caller's context keys.
	Validate(ctx context.Context, content map[string]interface{}, vctx map[string]interface{}) (*entity.ValidatorResult, error)

	// SupportedContentTypes lists the content types this validator understands
	SupportedContentTypes() []string

	// Info returns the validator's identity
	Info() ValidatorInfo
}

// ValidatorFactory builds a validator from the engine's collaborators
type ValidatorFactory func(provider ContentGenerationProvider, logger *zap.Logger) (Validator, error)
