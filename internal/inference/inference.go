// Package inference serves predictions from a persisted model.
package inference

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"resumeclf/internal/artifacts"
	"resumeclf/internal/textprep"
)

const (
	// TopK is the number of ranked predictions returned with each result.
	TopK = 3
	// MinTextLength is the minimum number of characters (after trimming
	// surrounding whitespace) a resume must have in batch requests.
	MinTextLength = 50
)

var (
	ErrModelNotLoaded = errors.New("model not loaded")
	ErrInvalidInput   = errors.New("invalid input")
)

// Prediction is one ranked (category, confidence) pair. Confidence is a
// percentage in [0, 100].
type Prediction struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// PredictionResult is the answer for a single resume.
type PredictionResult struct {
	PredictedCategory string       `json:"predicted_category"`
	Confidence        float64      `json:"confidence"`
	TopPredictions    []Prediction `json:"top_predictions"`
}

// BatchItem holds either a result or the reason the item was rejected.
type BatchItem struct {
	Result *PredictionResult
	Err    error
}

// Service owns the loaded model. It starts empty; Load populates it. The
// loaded model is never mutated, so predictions need no locking; a second
// Load swaps in a new model while in-flight predictions finish on the old
// one.
type Service struct {
	dir   string
	model atomic.Pointer[artifacts.Model]
}

// New returns an empty service reading artifacts from dir.
func New(dir string) *Service {
	return &Service{dir: dir}
}

// Dir is the artifact directory.
func (s *Service) Dir() string { return s.dir }

// Load reads the artifacts. On failure the previously loaded model, if any,
// stays in place.
func (s *Service) Load() error {
	m, err := artifacts.Load(s.dir)
	if err != nil {
		return fmt.Errorf("load model from %s: %w", s.dir, err)
	}
	s.model.Store(m)
	log.Infof("Model loaded from %s (%d categories)", s.dir, len(m.Categories))
	return nil
}

// Use installs an in-memory model, e.g. one that was just trained.
func (s *Service) Use(m *artifacts.Model) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.model.Store(m)
	return nil
}

// IsReady reports whether a model is loaded.
func (s *Service) IsReady() bool { return s.model.Load() != nil }

// Categories returns the category set of the loaded model.
func (s *Service) Categories() ([]string, error) {
	m := s.model.Load()
	if m == nil {
		return nil, ErrModelNotLoaded
	}
	return append([]string(nil), m.Categories...), nil
}

// Predict classifies one resume. Text that is empty after preprocessing is
// rejected with ErrInvalidInput.
func (s *Service) Predict(text string) (*PredictionResult, error) {
	m := s.model.Load()
	if m == nil {
		return nil, ErrModelNotLoaded
	}
	cleaned := textprep.Preprocess(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: text has no words left after cleaning", ErrInvalidInput)
	}

	x := m.Featurizer.Transform(cleaned)
	label := m.Classifier.Predict(x)
	proba := m.Classifier.PredictProba(x)

	order := make([]int, len(proba))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return proba[order[a]] > proba[order[b]] })

	k := min(TopK, len(order))
	top := make([]Prediction, k)
	for i := 0; i < k; i++ {
		top[i] = Prediction{Category: m.Categories[order[i]], Confidence: proba[order[i]] * 100}
	}
	return &PredictionResult{
		PredictedCategory: m.Categories[label],
		Confidence:        proba[label] * 100,
		TopPredictions:    top,
	}, nil
}

// ValidateLength rejects text shorter than MinTextLength characters once
// surrounding whitespace is trimmed.
func ValidateLength(text string) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextLength {
		return fmt.Errorf("%w: resume text too short (min %d chars)", ErrInvalidInput, MinTextLength)
	}
	return nil
}

// PredictBatch classifies every text independently. Items failing
// validation or prediction carry an error; they never fail the batch.
func (s *Service) PredictBatch(texts []string) []BatchItem {
	out := make([]BatchItem, len(texts))
	for i, text := range texts {
		if err := ValidateLength(text); err != nil {
			out[i].Err = err
			continue
		}
		out[i].Result, out[i].Err = s.Predict(text)
		if out[i].Err != nil {
			log.Warnf("Batch item %d: %v", i, out[i].Err)
		}
	}
	return out
}
