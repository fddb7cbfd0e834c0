package pipeline_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeclf/internal/dataset"
	"resumeclf/internal/ml"
	"resumeclf/internal/pipeline"
	"resumeclf/internal/testutil"
	"resumeclf/internal/textprep"
)

func TestTrainToyCorpus(t *testing.T) {
	res, err := pipeline.Train(testutil.ToyRows(10), pipeline.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, testutil.Categories, res.Model.Categories)
	assert.Equal(t, 30, res.TotalSamples)
	assert.Equal(t, 24, res.TrainSamples)
	assert.Equal(t, 6, res.TestSamples)
	assert.GreaterOrEqual(t, res.Accuracy, 0.8)
	require.Len(t, res.Report.Classes, 3)
	assert.Equal(t, 2, res.Report.Classes[0].Support)

	for i, c := range testutil.Categories {
		x := res.Model.Featurizer.Transform(textprep.Preprocess(testutil.Resume(c)))
		p := res.Model.Classifier.PredictProba(x)
		assert.Equal(t, i, ml.Argmax(p), "category %s", c)
		assert.Equal(t, i, res.Model.Classifier.Predict(x))
	}
}

func TestTrainDeterministic(t *testing.T) {
	a, err := pipeline.Train(testutil.ToyRows(10), pipeline.DefaultOptions())
	require.NoError(t, err)
	b, err := pipeline.Train(testutil.ToyRows(10), pipeline.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, a.Model.Categories, b.Model.Categories)
	assert.Equal(t, a.Accuracy, b.Accuracy)
	assert.Equal(t, a.Report, b.Report)
}

func TestTrainMaxSamples(t *testing.T) {
	opts := pipeline.DefaultOptions()
	opts.MaxSamples = 21
	res, err := pipeline.Train(testutil.ToyRows(10), opts)
	require.NoError(t, err)
	assert.Equal(t, 21, res.TotalSamples)
}

func TestTrainDropsEmptyRows(t *testing.T) {
	rows := append(testutil.ToyRows(10),
		dataset.Row{Text: "12345 !!! http://x.io", Label: "Chef"},
		dataset.Row{Text: "no label here", Label: ""},
	)
	res, err := pipeline.Train(rows, pipeline.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 30, res.TotalSamples)
}

func TestTrainStratificationFailure(t *testing.T) {
	rows := append(testutil.ToyRows(10),
		dataset.Row{Text: "Pilot with commercial airline experience", Label: "Aviation"},
		dataset.Row{Text: "Farmer growing organic vegetables", Label: "Agriculture"},
	)
	_, err := pipeline.Train(rows, pipeline.DefaultOptions())
	require.ErrorIs(t, err, pipeline.ErrStratification)

	var serr *pipeline.StratificationError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, []string{"Agriculture", "Aviation"}, serr.Labels)
}

func TestTrainNoData(t *testing.T) {
	_, err := pipeline.Train([]dataset.Row{{Text: "123", Label: "x"}}, pipeline.DefaultOptions())
	assert.ErrorIs(t, err, pipeline.ErrNoTrainingData)
}

func TestEvaluate(t *testing.T) {
	r := pipeline.Evaluate([]int{0, 0, 1, 1}, []int{0, 1, 1, 1}, []string{"a", "b"})
	assert.InDelta(t, 0.75, r.Accuracy, 1e-9)
	assert.InDelta(t, 1.0, r.Classes[0].Precision, 1e-9)
	assert.InDelta(t, 0.5, r.Classes[0].Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, r.Classes[1].Precision, 1e-9)
	assert.InDelta(t, 0.8, r.Classes[1].F1, 1e-9)
	assert.Equal(t, 4, r.WeightedAvg.Support)
	assert.Contains(t, r.String(), "weighted avg")
}
