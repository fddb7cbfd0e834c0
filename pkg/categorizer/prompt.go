package categorizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumeclf/internal/textprep"
)

// DefaultPrompt is used when no prompt template is configured. {{CATEGORIES}}
// and {{RESUME}} are substituted before sending.
const DefaultPrompt = `You classify resumes into job categories.
Allowed categories: {{CATEGORIES}}

Answer with a single JSON object and nothing else:
{"category": "<one of the allowed categories>", "confidence": <number between 0 and 1>}

Resume:
{{RESUME}}`

// DefaultExcerptRunes bounds the resume text sent to an LLM.
const DefaultExcerptRunes = 6000

func buildPrompt(template string, req CategorizationRequest, maxRunes int) string {
	if template == "" {
		template = DefaultPrompt
	}
	prompt := strings.ReplaceAll(template, "{{CATEGORIES}}", strings.Join(req.Categories, ", "))
	return strings.ReplaceAll(prompt, "{{RESUME}}", textprep.Excerpt(req.Text, maxRunes))
}

// parseAnswer decodes an LLM answer of the form {"category","confidence"}.
// The category is matched case-insensitively against allowed and returned
// in its canonical spelling; confidence is clamped to [0,1] and reported as
// a percentage.
func parseAnswer(content string, allowed []string) (CategorizationResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var parsed struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return CategorizationResult{}, fmt.Errorf("failed to parse LLM response as JSON: %w\nResponse content: %s", err, content)
	}

	category := ""
	for _, c := range allowed {
		if strings.EqualFold(strings.TrimSpace(parsed.Category), c) {
			category = c
			break
		}
	}
	if category == "" {
		return CategorizationResult{}, fmt.Errorf("%w: %q", ErrUnknownCategory, parsed.Category)
	}

	conf := min(max(parsed.Confidence, 0), 1) * 100
	return CategorizationResult{
		Category:   category,
		Confidence: conf,
		Top:        []Prediction{{Category: category, Confidence: conf}},
	}, nil
}
