package event

// Type identifies the type of domain event
type Type string

const (
	TypeValidationStarted   Type = "validation.started"
	TypeValidatorCompleted  Type = "validator.completed"
	TypeValidationCompleted Type = "validation.completed"
	TypeReviewRequested     Type = "review.requested"
)

// Payload keys shared by publishers and subscribers
const (
	KeyProjectID           = "project_id"
	KeyContentType         = "content_type"
	KeyValidatorID         = "validator_id"
	KeyStatus              = "status"
	KeyQualityScore        = "quality_score"
	KeyFindings            = "findings"
	KeyCriticalFindings    = "critical_findings"
	KeyDurationSeconds     = "duration_seconds"
	KeyTokensUsed          = "tokens_used"
	KeyCost                = "cost"
	KeyHumanReviewRequired = "human_review_required"
	KeyThreshold           = "human_review_threshold"
	KeyValidatorsRun       = "validators_run"
	KeyError               = "error"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeValidationStarted,
		TypeValidatorCompleted,
		TypeValidationCompleted,
		TypeReviewRequested:
		return true
	default:
		return false
	}
}
