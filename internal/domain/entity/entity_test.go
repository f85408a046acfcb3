package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_OrderingAndWeights(t *testing.T) {
	all := AllSeverities()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Rank(), all[i-1].Rank())
		assert.GreaterOrEqual(t, all[i].Weight(), all[i-1].Weight())
	}

	assert.Equal(t, 15.0, SeverityCritical.Weight())
	assert.Equal(t, 7.0, SeverityHigh.Weight())
	assert.Equal(t, 3.0, SeverityMedium.Weight())
	assert.Equal(t, 1.0, SeverityLow.Weight())
	assert.Equal(t, 0.0, SeverityInfo.Weight())

	assert.True(t, SeverityHigh.AtLeast(SeverityMedium))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.Equal(t, -1, Severity("URGENT").Rank())
}

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity(" high ")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, sev)

	_, err = ParseSeverity("severe")
	assert.Error(t, err)
}

func TestFindingType(t *testing.T) {
	types := AllFindingTypes()
	assert.Contains(t, types, FindingTypeSystemError)
	assert.True(t, FindingTypePublishingStandard.IsValid())
	assert.False(t, FindingType("grammar").IsValid())

	types[0] = "mutated"
	assert.Equal(t, FindingTypeContentQuality, AllFindingTypes()[0])
}

func TestNewFinding(t *testing.T) {
	f := NewFinding("tone", FindingTypeToneConsistency, SeverityMedium, "Shift in voice", "Chapter 3 switches to second person", 1.7)

	assert.NotEmpty(t, f.ID)
	assert.Equal(t, 1.0, f.Confidence)
	assert.WithinDuration(t, time.Now(), f.Timestamp, time.Second)

	low := NewFinding("tone", FindingTypeToneConsistency, SeverityLow, "t", "m", -0.2)
	assert.Equal(t, 0.0, low.Confidence)
	assert.NotEqual(t, f.ID, low.ID)
}

func TestFinding_WithHelpersDoNotMutate(t *testing.T) {
	f := NewFinding("tone", FindingTypeToneConsistency, SeverityMedium, "t", "m", 0.5).
		WithMetadata("paragraph", 4)

	g := f.WithMetadata("sentence", 2).WithLocation("chapter-3").WithRemediation("Keep third person")

	assert.NotContains(t, f.Metadata, "sentence")
	assert.Empty(t, f.Location)
	assert.Equal(t, 4, g.Metadata["paragraph"])
	assert.Equal(t, 2, g.Metadata["sentence"])
	assert.Equal(t, "chapter-3", g.Location)
	assert.Equal(t, "Keep third person", g.Remediation)
}

func TestFinding_Normalized(t *testing.T) {
	known := NewFinding("facts", FindingTypeFactualAccuracy, SeverityHigh, "t", "m", 0.5)
	got, changed := known.Normalized()
	assert.False(t, changed)
	assert.Equal(t, known, got)

	lower := known
	lower.Severity = "high"
	got, changed = lower.Normalized()
	assert.True(t, changed)
	assert.Equal(t, SeverityHigh, got.Severity)
	assert.NotContains(t, got.Metadata, "original_severity")

	bogus := known
	bogus.Severity = "URGENT"
	bogus.Type = "bogus"
	got, changed = bogus.Normalized()
	assert.True(t, changed)
	assert.Equal(t, SeverityMedium, got.Severity)
	assert.Equal(t, FindingTypeSystemError, got.Type)
	assert.Equal(t, "URGENT", got.Metadata["original_severity"])
	assert.Equal(t, "bogus", got.Metadata["original_type"])
	assert.Nil(t, bogus.Metadata)
}

func TestNewErrorResult(t *testing.T) {
	r := NewErrorResult("facts", errors.New("quota exceeded"))

	assert.Equal(t, StatusError, r.Status)
	require.Len(t, r.Findings, 1)
	f := r.Findings[0]
	assert.Equal(t, SeverityCritical, f.Severity)
	assert.Equal(t, FindingTypeSystemError, f.Type)
	assert.Equal(t, "*errors.errorString", f.Metadata["error_type"])
	assert.Equal(t, "quota exceeded", f.Metadata["error_message"])
	assert.True(t, r.HasCritical())

	nilErr := NewErrorResult("facts", nil)
	assert.Equal(t, "<nil>", nilErr.Findings[0].Metadata["error_type"])
}

func TestValidationResult_Helpers(t *testing.T) {
	r := NewValidationResult("val-1", "book-1", time.Now())
	assert.Equal(t, StatusNotStarted, r.Status)
	assert.False(t, r.HasError())
	assert.False(t, r.HasCritical())

	ok := NewValidatorResult("a")
	ok.AddFinding(NewFinding("a", FindingTypeCompliance, SeverityCritical, "t", "m", 1))
	r.ValidatorResults["a"] = ok
	assert.True(t, r.HasCritical())
	assert.False(t, r.HasError())

	r.ValidatorResults["b"] = NewErrorResult("b", errors.New("x"))
	assert.True(t, r.HasError())
}

func TestValidationStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusNeedsHumanReview.IsTerminal())
	assert.True(t, StatusError.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.False(t, StatusFailed.IsTerminal())
}

func TestAIUsage(t *testing.T) {
	var u AIUsage
	assert.True(t, u.IsZero())
	u = u.Add(AIUsage{TokensUsed: 10, Cost: 0.5, Requests: 1})
	assert.Equal(t, AIUsage{TokensUsed: 10, Cost: 0.5, Requests: 1}, u)
	assert.False(t, u.IsZero())
}
