package ai

import (
	"sort"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/domain/entity"
)

// Built-in validator ids
const (
	ContentQualityID     = "content-quality"
	ToneConsistencyID    = "tone-consistency"
	OutlineAdherenceID   = "outline-adherence"
	PublishingStandardID = "publishing-standard"
	AIOutputQualityID    = "ai-output-quality"
)

var bothTypes = []string{"project", "chapter"}

var builtins = []Spec{
	{
		ID:           ContentQualityID,
		Name:         "Content Quality Validator",
		Version:      "1.0.0",
		FindingType:  entity.FindingTypeContentQuality,
		ContentTypes: bothTypes,
		Instruction: "Assess clarity, structure, pacing and grammar. Report passages that are " +
			"confusing, repetitive or poorly organised.",
	},
	{
		ID:           ToneConsistencyID,
		Name:         "Tone Consistency Validator",
		Version:      "1.0.0",
		FindingType:  entity.FindingTypeToneConsistency,
		ContentTypes: bothTypes,
		Instruction: "Check that voice, tense and tone stay consistent with the target audience " +
			"and genre given in the content.",
	},
	{
		ID:           OutlineAdherenceID,
		Name:         "Outline Adherence Validator",
		Version:      "1.0.0",
		FindingType:  entity.FindingTypeOutlineAdherence,
		ContentTypes: bothTypes,
		Instruction: "Compare the text against its outline or chapter plan. Report missing beats, " +
			"out-of-order events and contradictions with the outline.",
		Fields: []string{"title", "outline", "chapter_outline", "content", "chapters"},
	},
	{
		ID:           PublishingStandardID,
		Name:         "Publishing Standard Validator",
		Version:      "1.0.0",
		FindingType:  entity.FindingTypePublishingStandard,
		ContentTypes: []string{"project"},
		Instruction: "Check the manuscript against publishing standards: word count for the " +
			"genre, front and back matter, chapter titles and formatting consistency.",
	},
	{
		ID:           AIOutputQualityID,
		Name:         "AI Output Quality Validator",
		Version:      "1.0.0",
		FindingType:  entity.FindingTypeAIOutputQuality,
		ContentTypes: bothTypes,
		Instruction: "Look for artefacts of machine generation: placeholder text, repeated " +
			"sentences, truncated passages and refusals or meta commentary.",
	},
}

// Specs returns the specs of every built-in validator
func Specs() []Spec {
	out := make([]Spec, len(builtins))
	copy(out, builtins)
	return out
}

// Catalog returns a factory per built-in validator id
func Catalog() map[string]port.ValidatorFactory {
	catalog := make(map[string]port.ValidatorFactory, len(builtins))
	for _, spec := range builtins {
		spec := spec
		catalog[spec.ID] = func(provider port.ContentGenerationProvider, logger *zap.Logger) (port.Validator, error) {
			return NewValidator(spec, provider, logger)
		}
	}
	return catalog
}

// CatalogIDs returns the built-in ids in sorted order
func CatalogIDs() []string {
	ids := make([]string, 0, len(builtins))
	for _, spec := range builtins {
		ids = append(ids, spec.ID)
	}
	sort.Strings(ids)
	return ids
}
