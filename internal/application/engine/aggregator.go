package engine

import (
	"github.com/garyjia/content-validation/internal/domain/entity"
)

// MaxQualityScore is the score of a run without findings
const MaxQualityScore = 100.0

// Aggregation is the verdict computed over a set of validator results
type Aggregation struct {
	Score               float64
	HumanReviewRequired bool
	Summary             entity.Summary
	TotalAIUsage        entity.AIUsage
}

// Score returns 100 minus the severity weights of findings, clamped to [0,100].
// Weights are whole numbers, so the sum does not depend on finding order.
func Score(findings []entity.Finding) float64 {
	penalty := 0.0
	for _, f := range findings {
		penalty += f.Severity.Weight()
	}
	return clampScore(MaxQualityScore - penalty)
}

// Aggregate turns per-validator results into one score, review flag and
// summary. It does not look at validator statuses; that is the lifecycle's job.
func Aggregate(results map[string]*entity.ValidatorResult, threshold float64) Aggregation {
	summary := entity.Summary{
		FindingsBySeverity: make(map[entity.Severity]int, len(entity.AllSeverities())),
		FindingsByType:     make(map[entity.FindingType]int, len(entity.AllFindingTypes())),
	}
	for _, s := range entity.AllSeverities() {
		summary.FindingsBySeverity[s] = 0
	}
	for _, t := range entity.AllFindingTypes() {
		summary.FindingsByType[t] = 0
	}

	var all []entity.Finding
	for _, r := range results {
		if r == nil {
			continue
		}
		summary.ValidatorsRun++
		summary.AIUsage = summary.AIUsage.Add(r.AIUsage)
		for _, f := range r.Findings {
			f, _ = f.Normalized()
			all = append(all, f)
			summary.FindingsBySeverity[f.Severity]++
			summary.FindingsByType[f.Type]++
		}
	}

	score := Score(all)
	summary.TotalFindings = len(all)
	summary.QualityScore = score
	summary.HumanReviewRequired = score < threshold

	return Aggregation{
		Score:               score,
		HumanReviewRequired: summary.HumanReviewRequired,
		Summary:             summary,
		TotalAIUsage:        summary.AIUsage,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxQualityScore {
		return MaxQualityScore
	}
	return v
}
