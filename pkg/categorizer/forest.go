package categorizer

import (
	"context"

	"resumeclf/internal/inference"
)

// Predictor is the part of inference.Service the forest backend uses.
type Predictor interface {
	Predict(text string) (*inference.PredictionResult, error)
}

// ForestCategorizer answers from the locally trained random forest. The
// allowed set is the model's own category set; req.Categories is ignored.
type ForestCategorizer struct {
	model Predictor
}

func NewForestCategorizer(model Predictor) *ForestCategorizer {
	return &ForestCategorizer{model: model}
}

func (c *ForestCategorizer) Name() string { return "forest" }

func (c *ForestCategorizer) Categorize(_ context.Context, req CategorizationRequest) (CategorizationResult, error) {
	res, err := c.model.Predict(req.Text)
	if err != nil {
		return CategorizationResult{}, err
	}
	top := make([]Prediction, len(res.TopPredictions))
	for i, p := range res.TopPredictions {
		top[i] = Prediction{Category: p.Category, Confidence: p.Confidence}
	}
	return CategorizationResult{Category: res.PredictedCategory, Confidence: res.Confidence, Top: top}, nil
}
