package entity

import (
	"fmt"
	"time"
)

// ValidationStatus is the status of a validator run or of a whole validation
type ValidationStatus string

const (
	StatusNotStarted       ValidationStatus = "NOT_STARTED"
	StatusInProgress       ValidationStatus = "IN_PROGRESS"
	StatusCompleted        ValidationStatus = "COMPLETED"
	StatusFailed           ValidationStatus = "FAILED"
	StatusNeedsHumanReview ValidationStatus = "NEEDS_HUMAN_REVIEW"
	StatusError            ValidationStatus = "ERROR"
)

// IsTerminal returns true once a validation can no longer change status
func (s ValidationStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusNeedsHumanReview, StatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status
func (s ValidationStatus) String() string {
	return string(s)
}

// AIUsage accounts for provider consumption
type AIUsage struct {
	TokensUsed int     `json:"tokens_used"`
	Cost       float64 `json:"cost"`
	Requests   int     `json:"requests"`
}

// Add returns the sum of two usages
func (u AIUsage) Add(other AIUsage) AIUsage {
	return AIUsage{
		TokensUsed: u.TokensUsed + other.TokensUsed,
		Cost:       u.Cost + other.Cost,
		Requests:   u.Requests + other.Requests,
	}
}

// IsZero reports whether nothing was consumed
func (u AIUsage) IsZero() bool {
	return u.TokensUsed == 0 && u.Cost == 0 && u.Requests == 0
}

// ValidatorResult is the outcome of a single validator
type ValidatorResult struct {
	ValidatorID   string                 `json:"validator_id"`
	Status        ValidationStatus       `json:"status"`
	Findings      []Finding              `json:"findings"`
	Metrics       map[string]interface{} `json:"metrics,omitempty"`
	ExecutionTime time.Duration          `json:"execution_time"`
	AIUsage       AIUsage                `json:"ai_usage"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// NewValidatorResult creates an empty COMPLETED result for a validator
func NewValidatorResult(validatorID string) *ValidatorResult {
	return &ValidatorResult{
		ValidatorID: validatorID,
		Status:      StatusCompleted,
		Findings:    []Finding{},
		Metrics:     make(map[string]interface{}),
		Metadata:    make(map[string]interface{}),
	}
}

// NewErrorResult converts a validator failure into an ERROR result holding a
// single CRITICAL system-error finding. The error's type and message are kept
// in the finding metadata.
func NewErrorResult(validatorID string, err error) *ValidatorResult {
	msg := "validator failed without an error"
	errType := "<nil>"
	if err != nil {
		msg = err.Error()
		errType = fmt.Sprintf("%T", err)
	}

	finding := NewFinding(validatorID, FindingTypeSystemError, SeverityCritical,
		"Validator execution failed", msg, 1.0).
		WithMetadata("error_type", errType).
		WithMetadata("error_message", msg)

	result := NewValidatorResult(validatorID)
	result.Status = StatusError
	result.Findings = []Finding{finding}
	result.Metadata["error"] = msg
	return result
}

// AddFinding appends a finding
func (r *ValidatorResult) AddFinding(f Finding) {
	r.Findings = append(r.Findings, f)
}

// HasCritical reports whether any finding is CRITICAL
func (r *ValidatorResult) HasCritical() bool {
	for _, f := range r.Findings {
		if f.IsCritical() {
			return true
		}
	}
	return false
}

// Summary is the aggregate view over all validator results of one validation
type Summary struct {
	TotalFindings       int                 `json:"total_findings"`
	FindingsBySeverity  map[Severity]int    `json:"findings_by_severity"`
	FindingsByType      map[FindingType]int `json:"findings_by_type"`
	QualityScore        float64             `json:"quality_score"`
	HumanReviewRequired bool                `json:"human_review_required"`
	ValidatorsRun       int                 `json:"validators_run"`
	AIUsage             AIUsage             `json:"ai_usage"`
	Error               string              `json:"error,omitempty"`
}

// ValidationResult is the outcome of one ValidateProject or ValidateChapter call
type ValidationResult struct {
	ValidationID        string                      `json:"validation_id"`
	ProjectID           string                      `json:"project_id"`
	Status              ValidationStatus            `json:"status"`
	OverallQualityScore float64                     `json:"overall_quality_score"`
	HumanReviewRequired bool                        `json:"human_review_required"`
	ValidatorResults    map[string]*ValidatorResult `json:"validator_results"`
	Summary             Summary                     `json:"summary"`
	TotalExecutionTime  time.Duration               `json:"total_execution_time"`
	TotalAIUsage        AIUsage                     `json:"total_ai_usage"`
	Timestamp           time.Time                   `json:"timestamp"`
}

// NewValidationResult creates a NOT_STARTED result
func NewValidationResult(validationID, projectID string, now time.Time) *ValidationResult {
	return &ValidationResult{
		ValidationID:     validationID,
		ProjectID:        projectID,
		Status:           StatusNotStarted,
		ValidatorResults: make(map[string]*ValidatorResult),
		Timestamp:        now,
	}
}

// HasCritical reports whether any validator produced a CRITICAL finding
func (r *ValidationResult) HasCritical() bool {
	for _, vr := range r.ValidatorResults {
		if vr != nil && vr.HasCritical() {
			return true
		}
	}
	return false
}

// HasError reports whether any validator ended in ERROR
func (r *ValidationResult) HasError() bool {
	for _, vr := range r.ValidatorResults {
		if vr != nil && vr.Status == StatusError {
			return true
		}
	}
	return false
}
