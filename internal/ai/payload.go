package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// analysisPayload is the JSON document validators ask the provider for
type analysisPayload struct {
	QualityScore *float64         `json:"quality_score"`
	Summary      string           `json:"summary"`
	Findings     []payloadFinding `json:"findings"`
}

type payloadFinding struct {
	Severity    string   `json:"severity"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	Location    string   `json:"location"`
	Remediation string   `json:"remediation"`
	Confidence  *float64 `json:"confidence"`
}

// parsePayload decodes the provider answer. Models sometimes wrap the object
// in markdown fences or prose, so on failure the first balanced {...} block
// is tried.
func parsePayload(content string) (*analysisPayload, error) {
	var payload analysisPayload
	err := json.Unmarshal([]byte(content), &payload)
	if err == nil {
		return &payload, nil
	}

	if extracted := extractJSON(content); extracted != "" {
		if err2 := json.Unmarshal([]byte(extracted), &payload); err2 == nil {
			return &payload, nil
		}
	}
	return nil, fmt.Errorf("failed to parse analysis payload: %w", err)
}

// extractJSON returns the first balanced JSON object in content, or ""
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
