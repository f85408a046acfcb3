package scenario

import "github.com/garyjia/content-validation/internal/application/port"

// Canned analysis documents. They follow the JSON shape validators request:
// quality_score, summary and a findings array.
var payloads = map[port.Scenario]string{
	port.ScenarioSuccess: `{
  "quality_score": 88,
  "summary": "Solid draft with minor polish needed.",
  "findings": [
    {"severity": "LOW", "type": "content-quality", "title": "Long sentence", "message": "The opening sentence runs over 60 words.", "location": "paragraph 1", "remediation": "Split the sentence in two.", "confidence": 0.82},
    {"severity": "INFO", "type": "content-quality", "title": "Strong hook", "message": "The opening establishes stakes quickly.", "confidence": 0.9}
  ]
}`,
	port.ScenarioHighQuality: `{
  "quality_score": 97,
  "summary": "Publication ready.",
  "findings": []
}`,
	port.ScenarioLowQuality: `{
  "quality_score": 41,
  "summary": "Major structural and consistency problems.",
  "findings": [
    {"severity": "CRITICAL", "type": "outline-adherence", "title": "Missing climax", "message": "The chapter skips the confrontation promised by the outline.", "remediation": "Write the confrontation scene.", "confidence": 0.93},
    {"severity": "HIGH", "type": "tone-consistency", "title": "Tense shifts", "message": "Narration switches between past and present tense.", "location": "section 2", "confidence": 0.88},
    {"severity": "MEDIUM", "type": "content-quality", "title": "Repetition", "message": "The same description appears three times.", "confidence": 0.75}
  ]
}`,
	port.ScenarioInvalidResponse: `I'm sorry, but I can't provide a structured review of this manuscript right now.`,
	port.ScenarioPartialFailure: `{
  "quality_score": 72,
  "summary": "Analysis partially completed.",
  "findings": [
    {"severity": "MEDIUM", "type": "content-quality", "title": "Uneven pacing", "message": "The middle section drags.", "confidence": 0.7},
    {"severity": "UNKNOWN", "title": "", "message": "truncated"}
  ]
}`,
	port.ScenarioEdgeCase: "```json\n" + `{
  "quality_score": 100,
  "summary": "Edge case: unicode «ß» 漢字 and a zero confidence finding.",
  "findings": [
    {"severity": "INFO", "type": "content-quality", "title": "Unicode heading «Kapitel 1»", "message": "Heading contains non-ASCII characters: 第一章.", "confidence": 0}
  ]
}` + "\n```",
}
