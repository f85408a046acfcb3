package lark

import (
	"fmt"

	"github.com/garyjia/content-validation/internal/application/port"
)

// buildReviewCard renders an interactive message card for a review request
func buildReviewCard(req port.ReviewRequest) map[string]interface{} {
	template := "orange"
	if req.CriticalFindings > 0 {
		template = "red"
	}

	body := fmt.Sprintf("**Project:** %s\n**Quality score:** %.1f (threshold %.1f)\n**Findings:** %d total, %d critical",
		req.ProjectID, req.QualityScore, req.Threshold, req.TotalFindings, req.CriticalFindings)

	return map[string]interface{}{
		"config": map[string]interface{}{
			"wide_screen_mode": true,
		},
		"header": map[string]interface{}{
			"template": template,
			"title": map[string]interface{}{
				"tag":     "plain_text",
				"content": "Content needs human review",
			},
		},
		"elements": []interface{}{
			map[string]interface{}{
				"tag": "div",
				"text": map[string]interface{}{
					"tag":     "lark_md",
					"content": body,
				},
			},
			map[string]interface{}{
				"tag": "note",
				"elements": []interface{}{
					map[string]interface{}{
						"tag":     "plain_text",
						"content": "Validation " + req.ValidationID,
					},
				},
			},
		},
	}
}
