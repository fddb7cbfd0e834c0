// Package pipeline trains the resume classifier: it cleans the rows, splits
// them, fits the vectorizer and the forest and evaluates the result.
package pipeline

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"resumeclf/internal/artifacts"
	"resumeclf/internal/dataset"
	"resumeclf/internal/ml"
	"resumeclf/internal/ml/forest"
	"resumeclf/internal/ml/tfidf"
	"resumeclf/internal/textprep"
)

var ErrNoTrainingData = errors.New("pipeline: no usable training rows")

// FeaturizerFunc fits a featurizer on the training corpus.
type FeaturizerFunc func(corpus []string) (ml.Featurizer, error)

// ClassifierFunc fits a classifier on the transformed training set.
type ClassifierFunc func(X []ml.Vector, y []int, nClasses, nFeatures int) (ml.Classifier, error)

// Options configures Train. The zero value is completed by DefaultOptions.
type Options struct {
	MaxSamples int
	Seed       uint64
	TestSize   float64

	Vectorizer tfidf.Params
	Forest     forest.Params

	// NewFeaturizer and NewClassifier replace the TF-IDF vectorizer and the
	// random forest when set.
	NewFeaturizer FeaturizerFunc
	NewClassifier ClassifierFunc
}

// DefaultOptions mirrors the resume classifier settings.
func DefaultOptions() Options {
	return Options{
		Seed:       42,
		TestSize:   0.2,
		Vectorizer: tfidf.DefaultParams(),
		Forest:     forest.DefaultParams(),
	}
}

// Result is the outcome of one training run.
type Result struct {
	Model        *artifacts.Model
	Accuracy     float64
	Report       *Report
	TotalSamples int
	TrainSamples int
	TestSamples  int
	Duration     time.Duration
}

// Train runs the pipeline on rows. It is a one-shot batch step: the same rows
// and options always produce the same categories and accuracy.
func Train(rows []dataset.Row, opts Options) (*Result, error) {
	start := time.Now()
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		opts.TestSize = 0.2
	}
	if opts.NewFeaturizer == nil {
		params := opts.Vectorizer
		opts.NewFeaturizer = func(corpus []string) (ml.Featurizer, error) {
			return tfidf.Fit(corpus, params)
		}
	}
	if opts.NewClassifier == nil {
		params := opts.Forest
		params.Seed = opts.Seed
		opts.NewClassifier = func(X []ml.Vector, y []int, nClasses, nFeatures int) (ml.Classifier, error) {
			return forest.Fit(X, y, nClasses, nFeatures, params)
		}
	}

	if opts.MaxSamples > 0 && len(rows) > opts.MaxSamples {
		rows = subsample(rows, opts.MaxSamples, opts.Seed)
		log.Infof("Using %d samples for faster training", opts.MaxSamples)
	}

	texts, labels := clean(rows)
	if len(texts) == 0 {
		return nil, ErrNoTrainingData
	}
	categories := distinct(labels)
	logDistribution(labels, categories)

	classIndex := make(map[string]int, len(categories))
	for i, c := range categories {
		classIndex[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = classIndex[l]
	}

	trainIdx, testIdx, err := stratifiedSplit(y, categories, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}
	log.Infof("Split data: %d training, %d testing samples", len(trainIdx), len(testIdx))

	trainTexts := pick(texts, trainIdx)
	feat, err := opts.NewFeaturizer(trainTexts)
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	Xtrain := transform(feat, trainTexts)
	Xtest := transform(feat, pick(texts, testIdx))
	ytrain, ytest := pick(y, trainIdx), pick(y, testIdx)
	log.Infof("Feature matrix: %d x %d", len(Xtrain), feat.Dim())

	clf, err := opts.NewClassifier(Xtrain, ytrain, len(categories), feat.Dim())
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	pred := make([]int, len(Xtest))
	for i, x := range Xtest {
		pred[i] = clf.Predict(x)
	}
	report := Evaluate(ytest, pred, categories)
	log.Infof("Accuracy: %.2f%%", report.Accuracy*100)

	return &Result{
		Model:        &artifacts.Model{Featurizer: feat, Classifier: clf, Categories: categories},
		Accuracy:     report.Accuracy,
		Report:       report,
		TotalSamples: len(texts),
		TrainSamples: len(trainIdx),
		TestSamples:  len(testIdx),
		Duration:     time.Since(start),
	}, nil
}

// subsample picks n rows uniformly at random, keeping their original order.
func subsample(rows []dataset.Row, n int, seed uint64) []dataset.Row {
	rng := rand.New(rand.NewPCG(seed, 0))
	idx := rng.Perm(len(rows))[:n]
	sort.Ints(idx)
	return pick(rows, idx)
}

// clean preprocesses every text and drops rows whose cleaned text or label
// is empty.
func clean(rows []dataset.Row) ([]string, []string) {
	texts := make([]string, 0, len(rows))
	labels := make([]string, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		text := textprep.Preprocess(r.Text)
		if text == "" || r.Label == "" {
			dropped++
			continue
		}
		texts = append(texts, text)
		labels = append(labels, r.Label)
	}
	if dropped > 0 {
		log.Warnf("Dropped %d rows with empty text or label", dropped)
	}
	return texts, labels
}

func distinct(labels []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

func logDistribution(labels, categories []string) {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	log.Infof("Total samples: %d, categories: %d", len(labels), len(categories))
	for _, c := range categories {
		log.Debugf("  %s: %d (%.1f%%)", c, counts[c], float64(counts[c])/float64(len(labels))*100)
	}
}

func transform(f ml.Featurizer, texts []string) []ml.Vector {
	out := make([]ml.Vector, len(texts))
	for i, t := range texts {
		out[i] = f.Transform(t)
	}
	return out
}

func pick[T any](s []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = s[j]
	}
	return out
}
