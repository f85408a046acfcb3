package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Defaults used by DefaultValidationConfig
const (
	DefaultHumanReviewThreshold = 70.0
	DefaultMaxParallelRequests  = 5
	DefaultRequestTimeout       = 60
)

// ValidationConfig drives one engine. The engine re-reads it on every call,
// so callers may toggle EnabledValidators or ParallelProcessing between runs.
//
// CancelOnFailFast is only honoured together with FailFast in parallel mode.
// RequestTimeout is in seconds and is consumed by providers, not the engine.
type ValidationConfig struct {
	ProjectID            string                            `yaml:"project_id" json:"project_id" validate:"required"`
	ValidationRules      map[string]interface{}            `yaml:"validation_rules" json:"validation_rules"`
	QualityThresholds    map[string]float64                `yaml:"quality_thresholds" json:"quality_thresholds"`
	HumanReviewThreshold float64                           `yaml:"human_review_threshold" json:"human_review_threshold" validate:"gte=0,lte=100"`
	EnabledValidators    []string                          `yaml:"enabled_validators" json:"enabled_validators" validate:"dive,required"`
	ValidatorConfigs     map[string]map[string]interface{} `yaml:"validator_configs" json:"validator_configs"`
	ParallelProcessing   bool                              `yaml:"parallel_processing" json:"parallel_processing"`
	FailFast             bool                              `yaml:"fail_fast" json:"fail_fast"`
	CancelOnFailFast     bool                              `yaml:"cancel_on_fail_fast" json:"cancel_on_fail_fast"`
	MaxParallelRequests  int                               `yaml:"max_parallel_requests" json:"max_parallel_requests" validate:"gt=0"`
	RequestTimeout       int                               `yaml:"request_timeout" json:"request_timeout" validate:"gte=0"`
}

// DefaultValidationConfig returns a sequential, non fail-fast config
func DefaultValidationConfig(projectID string) *ValidationConfig {
	cfg := &ValidationConfig{
		ProjectID:            projectID,
		HumanReviewThreshold: DefaultHumanReviewThreshold,
		MaxParallelRequests:  DefaultMaxParallelRequests,
		RequestTimeout:       DefaultRequestTimeout,
	}
	cfg.normalize()
	return cfg
}

// ConfigFor returns the validator's own config, or an empty map
func (c *ValidationConfig) ConfigFor(validatorID string) map[string]interface{} {
	if cfg, ok := c.ValidatorConfigs[validatorID]; ok && cfg != nil {
		return cfg
	}
	return map[string]interface{}{}
}

// IsEnabled reports whether id would run under this config
func (c *ValidationConfig) IsEnabled(validatorID string) bool {
	if len(c.EnabledValidators) == 0 {
		return true
	}
	for _, id := range c.EnabledValidators {
		if id == validatorID {
			return true
		}
	}
	return false
}

// normalize replaces nil collections with empty ones so decoded documents
// compare equal to constructed configs
func (c *ValidationConfig) normalize() {
	if c.ValidationRules == nil {
		c.ValidationRules = map[string]interface{}{}
	}
	if c.QualityThresholds == nil {
		c.QualityThresholds = map[string]float64{}
	}
	if c.EnabledValidators == nil {
		c.EnabledValidators = []string{}
	}
	if c.ValidatorConfigs == nil {
		c.ValidatorConfigs = map[string]map[string]interface{}{}
	}
}

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

func getValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Report file keys instead of Go field names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		structValidator = v
	})
	return structValidator
}

// Validate checks the config invariants: non-empty project id, threshold in
// [0,100] and a positive parallelism bound. Failures are *ConfigurationError.
func (c *ValidationConfig) Validate() error {
	if c == nil {
		return newConfigurationError("", "validation config is nil", nil)
	}

	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return newConfigurationError("", "invalid validation config", err)
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return newConfigurationError(field, describe(fe), err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
