package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = "You are a meticulous book editor reviewing manuscripts for a publisher. " +
	"Always respond with a single valid JSON object and nothing else."

const responseSchema = `{
  "quality_score": number between 0 and 100,
  "summary": string,
  "findings": [
    {
      "severity": "INFO" | "LOW" | "MEDIUM" | "HIGH" | "CRITICAL",
      "type": string,
      "title": string,
      "message": string,
      "location": string (optional),
      "remediation": string (optional),
      "confidence": number between 0.0 and 1.0
    }
  ]
}`

// SystemPrompt is the role message providers send ahead of validator prompts
func SystemPrompt() string {
	return systemPrompt
}

// buildPrompt renders the request for one validator. Map keys are marshalled
// in sorted order so identical content always yields the same prompt and
// therefore the same replay key.
func buildPrompt(spec Spec, content, vctx map[string]interface{}, modelHint string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Task: %s\n", spec.Instruction)
	if ct, _ := vctx["content_type"].(string); ct != "" {
		fmt.Fprintf(&b, "Content type: %s\n", ct)
	}
	if modelHint != "" {
		fmt.Fprintf(&b, "Reviewer guidance: %s\n", modelHint)
	}

	if rules, ok := vctx["validation_rules"].(map[string]interface{}); ok && len(rules) > 0 {
		b.WriteString("\nProject rules:\n")
		b.WriteString(marshalIndent(rules))
		b.WriteString("\n")
	}

	b.WriteString("\nContent:\n")
	b.WriteString(marshalIndent(selectFields(content, spec.Fields)))
	b.WriteString("\n\nRespond with ONLY a JSON object with this structure:\n")
	b.WriteString(responseSchema)
	fmt.Fprintf(&b, "\nUse \"%s\" as the finding type unless another type fits better.", spec.FindingType)

	return b.String()
}

// selectFields narrows content to fields when the validator names any that
// are present; otherwise the whole document is sent
func selectFields(content map[string]interface{}, fields []string) map[string]interface{} {
	if len(fields) == 0 {
		return content
	}
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		if v, ok := content[f]; ok {
			out[f] = v
		}
	}
	if len(out) == 0 {
		return content
	}
	return out
}

func marshalIndent(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
