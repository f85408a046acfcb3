package entity

import (
	"time"

	"github.com/google/uuid"
)

// Finding is a single issue reported by a validator.
// Treat it as a value: use WithMetadata instead of mutating Metadata.
type Finding struct {
	ID          string                 `json:"id"`
	ValidatorID string                 `json:"validator_id"`
	Type        FindingType            `json:"type"`
	Severity    Severity               `json:"severity"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Location    string                 `json:"location,omitempty"`
	Remediation string                 `json:"remediation,omitempty"`
	Confidence  float64                `json:"confidence"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// NewFinding creates a finding with a generated ID and the current timestamp.
// Confidence is clamped into [0,1].
func NewFinding(validatorID string, findingType FindingType, severity Severity, title, message string, confidence float64) Finding {
	return Finding{
		ID:          uuid.NewString(),
		ValidatorID: validatorID,
		Type:        findingType,
		Severity:    severity,
		Title:       title,
		Message:     message,
		Confidence:  clamp(confidence, 0, 1),
		Timestamp:   time.Now(),
	}
}

// WithLocation returns a copy of the finding pointing at location
func (f Finding) WithLocation(location string) Finding {
	f.Location = location
	return f
}

// WithRemediation returns a copy of the finding carrying remediation advice
func (f Finding) WithRemediation(remediation string) Finding {
	f.Remediation = remediation
	return f
}

// WithMetadata returns a copy of the finding with an added metadata key
func (f Finding) WithMetadata(key string, value interface{}) Finding {
	md := make(map[string]interface{}, len(f.Metadata)+1)
	for k, v := range f.Metadata {
		md[k] = v
	}
	md[key] = value
	f.Metadata = md
	return f
}

// Normalized returns a copy of the finding with an unknown severity mapped
// to MEDIUM and an unknown type mapped to system-error. Severity names are
// matched case-insensitively. Replaced values are kept in the metadata under
// original_severity and original_type. The bool reports whether anything changed.
func (f Finding) Normalized() (Finding, bool) {
	changed := false
	if !f.Severity.IsValid() {
		if sev, err := ParseSeverity(string(f.Severity)); err == nil {
			f.Severity = sev
		} else {
			f = f.WithMetadata("original_severity", string(f.Severity))
			f.Severity = SeverityMedium
		}
		changed = true
	}
	if !f.Type.IsValid() {
		f = f.WithMetadata("original_type", string(f.Type))
		f.Type = FindingTypeSystemError
		changed = true
	}
	return f, changed
}

// IsCritical reports whether the finding has CRITICAL severity
func (f Finding) IsCritical() bool {
	return f.Severity == SeverityCritical
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
