package services

import (
	"context"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"resumeclf/internal/inference"
	"resumeclf/internal/models"
	"resumeclf/internal/store"
	"resumeclf/pkg/categorizer"
)

// ClassificationService classifies resumes with the configured backend and
// records each prediction in the ledger.
type ClassificationService struct {
	Categorizer categorizer.ContentCategorizer
	categories  CategorySource
	predictions store.PredictionLogStore
}

// NewClassificationService wires a backend to its category source.
// predictions may be nil, which disables prediction logging.
func NewClassificationService(cat categorizer.ContentCategorizer, categories CategorySource, predictions store.PredictionLogStore) *ClassificationService {
	return &ClassificationService{Categorizer: cat, categories: categories, predictions: predictions}
}

// Ready reports whether a category set is available.
func (s *ClassificationService) Ready() bool {
	cats, err := s.categories.Categories()
	return err == nil && len(cats) > 0
}

// Categories returns the allowed categories.
func (s *ClassificationService) Categories(_ context.Context) ([]string, error) {
	return s.categories.Categories()
}

// Classify classifies one resume.
func (s *ClassificationService) Classify(ctx context.Context, text string) (*categorizer.CategorizationResult, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < inference.MinTextLength {
		return nil, ErrTextTooShort
	}
	cats, err := s.categories.Categories()
	if err != nil {
		return nil, err
	}
	res, err := s.Categorizer.Categorize(ctx, categorizer.CategorizationRequest{Text: text, Categories: cats})
	if err != nil {
		return nil, err
	}
	s.record(ctx, &res, utf8.RuneCountInString(text))
	return &res, nil
}

// ClassifyBatch classifies every text independently. A failing item never
// fails the batch.
func (s *ClassificationService) ClassifyBatch(ctx context.Context, texts []string) []BatchResult {
	out := make([]BatchResult, len(texts))
	for i, text := range texts {
		out[i].Result, out[i].Err = s.Classify(ctx, text)
		if out[i].Err != nil {
			log.Warnf("Batch item %d: %v", i, out[i].Err)
		}
	}
	return out
}

func (s *ClassificationService) record(ctx context.Context, res *categorizer.CategorizationResult, textLen int) {
	if s.predictions == nil {
		return
	}
	entry := &models.PredictionLog{
		Backend:           s.Categorizer.Name(),
		PredictedCategory: res.Category,
		Confidence:        res.Confidence,
		TextLength:        textLen,
	}
	if err := s.predictions.RecordPrediction(ctx, entry); err != nil {
		log.Warnf("Failed to record prediction: %v", err)
	}
}
