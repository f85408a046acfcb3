package entity

import (
	"fmt"
	"strings"
)

// Severity ranks how serious a finding is
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// severityWeight is the number of quality points a finding of each severity costs
var severityWeight = map[Severity]float64{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   3,
	SeverityHigh:     7,
	SeverityCritical: 15,
}

// AllSeverities returns every severity from least to most serious
func AllSeverities() []Severity {
	return []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// ParseSeverity converts a case-insensitive name into a Severity
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("unknown severity: %q", s)
	}
	return sev, nil
}

// IsValid returns true if the severity is one of the defined constants
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank orders severities, INFO being 0 and CRITICAL 4. Unknown severities rank -1.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Weight returns the score penalty for one finding of this severity
func (s Severity) Weight() float64 {
	return severityWeight[s]
}

// AtLeast reports whether s is as serious as other or more
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// String returns the string representation of the severity
func (s Severity) String() string {
	return string(s)
}

// FindingType classifies what a finding is about
type FindingType string

const (
	FindingTypeContentQuality     FindingType = "content-quality"
	FindingTypeToneConsistency    FindingType = "tone-consistency"
	FindingTypeOutlineAdherence   FindingType = "outline-adherence"
	FindingTypeSecurity           FindingType = "security"
	FindingTypeCodeQuality        FindingType = "code-quality"
	FindingTypeDocumentation      FindingType = "documentation"
	FindingTypeCompliance         FindingType = "compliance"
	FindingTypePublishingStandard FindingType = "publishing-standard"
	FindingTypeAIOutputQuality    FindingType = "ai-output-quality"
	FindingTypePlagiarism         FindingType = "plagiarism"
	FindingTypeFactualAccuracy    FindingType = "factual-accuracy"
	FindingTypeSystemError        FindingType = "system-error"
)

var findingTypes = []FindingType{
	FindingTypeContentQuality,
	FindingTypeToneConsistency,
	FindingTypeOutlineAdherence,
	FindingTypeSecurity,
	FindingTypeCodeQuality,
	FindingTypeDocumentation,
	FindingTypeCompliance,
	FindingTypePublishingStandard,
	FindingTypeAIOutputQuality,
	FindingTypePlagiarism,
	FindingTypeFactualAccuracy,
	FindingTypeSystemError,
}

// AllFindingTypes returns every known finding type in a stable order
func AllFindingTypes() []FindingType {
	out := make([]FindingType, len(findingTypes))
	copy(out, findingTypes)
	return out
}

// IsValid checks if the finding type is one of the defined constants
func (t FindingType) IsValid() bool {
	for _, ft := range findingTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// String returns the string representation of the finding type
func (t FindingType) String() string {
	return string(t)
}
