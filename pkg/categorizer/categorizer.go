// Package categorizer abstracts over the backends that can assign a job
// category to a resume.
package categorizer

import (
	"context"
	"errors"
)

// ErrUnknownCategory is returned when a backend answers with a category
// outside the allowed set.
var ErrUnknownCategory = errors.New("category not in allowed set")

// CategorizationRequest holds the resume text and the allowed categories.
type CategorizationRequest struct {
	Text       string
	Categories []string
}

// Prediction is one ranked category with a confidence percentage.
type Prediction struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// CategorizationResult holds the chosen category. Confidence is a
// percentage in [0, 100]; Top is ordered by decreasing confidence and starts
// with the chosen category.
type CategorizationResult struct {
	Category   string       `json:"predicted_category"`
	Confidence float64      `json:"confidence"`
	Top        []Prediction `json:"top_predictions"`
}

// ContentCategorizer categorizes resumes
type ContentCategorizer interface {
	Categorize(ctx context.Context, req CategorizationRequest) (CategorizationResult, error)
	// Name identifies the backend in logs and the prediction ledger.
	Name() string
}
