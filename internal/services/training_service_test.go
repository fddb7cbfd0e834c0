package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeclf/internal/artifacts"
	"resumeclf/internal/dataset"
	"resumeclf/internal/inference"
	"resumeclf/internal/models"
	"resumeclf/internal/pipeline"
	"resumeclf/internal/store/primary"
	"resumeclf/internal/testutil"
)

func newLedger(t *testing.T) *primary.StoreImpl {
	t.Helper()
	s, err := primary.NewPrimaryStore(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTrainingRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "data", "Resume.csv")
	testutil.WriteCSV(t, csvPath, testutil.ToyRows(10))

	ledger := newLedger(t)
	run := &models.TrainingRun{DatasetPath: csvPath}
	require.NoError(t, ledger.CreateRun(ctx, run))

	modelDir := filepath.Join(dir, "models")
	model := inference.New(modelDir)
	svc := NewTrainingService(ledger, modelDir, pipeline.DefaultOptions(), model)

	res, err := svc.Run(ctx, TrainRequest{
		RunID:  run.ID,
		Source: dataset.Source{Path: csvPath, TextColumn: "Resume_str", CategoryColumn: "Category"},
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.Categories, res.Model.Categories)
	assert.True(t, artifacts.Exists(modelDir))
	assert.True(t, model.IsReady())

	got, err := ledger.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, 30, got.TotalSamples)
	assert.Equal(t, testutil.Categories, got.Categories)
	require.NotNil(t, got.Accuracy)
	assert.InDelta(t, res.Accuracy, *got.Accuracy, 1e-9)

	var report pipeline.Report
	require.NoError(t, json.Unmarshal(got.ReportJSON, &report))
	assert.Len(t, report.Classes, 3)
}

func TestTrainingRunFromInfo(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, filepath.Join(dir, "data", "Resume.csv"), testutil.ToyRows(5))
	info := `{"dataset_path": "data", "csv_file": "Resume.csv", "text_column": "Resume_str", "category_column": "Category"}`
	infoPath := filepath.Join(dir, "dataset_info.json")
	require.NoError(t, os.WriteFile(infoPath, []byte(info), 0o644))

	svc := NewTrainingService(nil, filepath.Join(dir, "models"), pipeline.DefaultOptions(), nil)
	res, err := svc.Run(context.Background(), TrainRequest{InfoPath: infoPath, MaxSamples: 12})
	require.NoError(t, err)
	assert.Equal(t, 12, res.TotalSamples)
}

func TestTrainingRunFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "Resume.csv")
	testutil.WriteCSV(t, csvPath, testutil.ToyRows(3))

	ledger := newLedger(t)
	runID := uuid.New()
	svc := NewTrainingService(ledger, filepath.Join(dir, "models"), pipeline.DefaultOptions(), nil)

	_, err := svc.Run(ctx, TrainRequest{
		RunID:  runID,
		Source: dataset.Source{Path: csvPath, TextColumn: "Resume", CategoryColumn: "Category"},
	})
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)

	got, err := ledger.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.Contains(t, got.Error, "Resume")
	assert.False(t, artifacts.Exists(filepath.Join(dir, "models")))
}
