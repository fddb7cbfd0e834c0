package primary

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeclf/internal/models"
	"resumeclf/internal/store"
)

func newTestStore(t *testing.T) *StoreImpl {
	t.Helper()
	s, err := NewPrimaryStore(context.Background(), filepath.Join(t.TempDir(), "ledger", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTrainingRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run := &models.TrainingRun{DatasetPath: "data/Resume.csv", TextColumn: "Resume_str", CategoryColumn: "Category", MaxSamples: 500}
	require.NoError(t, s.CreateRun(ctx, run))
	require.NotEqual(t, uuid.Nil, run.ID)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusEnqueued, got.Status)
	assert.Equal(t, "Resume_str", got.TextColumn)
	assert.Equal(t, 500, got.MaxSamples)
	assert.Nil(t, got.Accuracy)
	assert.Empty(t, got.Categories)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, models.RunStatusRunning))
	report := json.RawMessage(`{"accuracy":0.9}`)
	require.NoError(t, s.CompleteRun(ctx, run.ID, models.RunResult{
		TotalSamples: 100, TrainSamples: 80, TestSamples: 20,
		Categories: []string{"Chef", "Nurse"}, Accuracy: 0.9, ReportJSON: report,
	}))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	require.NotNil(t, got.Accuracy)
	assert.InDelta(t, 0.9, *got.Accuracy, 1e-9)
	assert.Equal(t, []string{"Chef", "Nurse"}, got.Categories)
	assert.Equal(t, 80, got.TrainSamples)
	assert.JSONEq(t, string(report), string(got.ReportJSON))
}

func TestFailRunAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run := &models.TrainingRun{DatasetPath: "x.csv"}
	require.NoError(t, s.CreateRun(ctx, run))
	require.NoError(t, s.FailRun(ctx, run.ID, "stratification failed"))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.Equal(t, "stratification failed", got.Error)

	missing := uuid.New()
	_, err = s.GetRun(ctx, missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateRunStatus(ctx, missing, models.RunStatusRunning), store.ErrNotFound)
	assert.ErrorIs(t, s.FailRun(ctx, missing, "x"), store.ErrNotFound)
}

func TestCreateRunDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run := &models.TrainingRun{DatasetPath: "x.csv"}
	require.NoError(t, s.CreateRun(ctx, run))

	again := &models.TrainingRun{ID: run.ID, DatasetPath: "y.csv"}
	err := s.CreateRun(ctx, again)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "x.csv", got.DatasetPath)
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateRun(ctx, &models.TrainingRun{DatasetPath: "d.csv"}))
	}

	runs, err := s.ListRuns(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = s.ListRuns(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestPredictionLogs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, c := range []string{"Chef", "Nurse"} {
		e := &models.PredictionLog{Backend: models.BackendForest, PredictedCategory: c, Confidence: 75, TextLength: 120}
		require.NoError(t, s.RecordPrediction(ctx, e))
		assert.NotZero(t, e.ID)
	}

	logs, err := s.ListPredictions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Nurse", logs[0].PredictedCategory)
	assert.Equal(t, 120, logs[1].TextLength)
}

func TestUsageLogs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cost, in, out, err := s.GetUsageSummary(ctx)
	require.NoError(t, err)
	assert.Zero(t, cost)
	assert.Zero(t, in+out)

	runID := uuid.New()
	require.NoError(t, s.RecordUsage(ctx, &models.AIUsageLog{ProviderName: "openai", ServiceType: "categorization", ModelName: "gpt-4o-mini", InputTokens: 100, OutputTokens: 10, Cost: 0.002, RelatedRunID: &runID}))
	require.NoError(t, s.RecordUsage(ctx, &models.AIUsageLog{ProviderName: "gemini", ServiceType: "categorization", ModelName: "gemini-1.5-flash", InputTokens: 50, OutputTokens: 5, Cost: 0.001}))

	cost, in, out, err = s.GetUsageSummary(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.003, cost, 1e-9)
	assert.EqualValues(t, 150, in)
	assert.EqualValues(t, 15, out)

	logs, err := s.ListUsage(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	var withRun int
	for _, l := range logs {
		if l.RelatedRunID != nil {
			assert.Equal(t, runID, *l.RelatedRunID)
			withRun++
		}
	}
	assert.Equal(t, 1, withRun)
}

func TestRebind(t *testing.T) {
	pg := &StoreImpl{postgres: true}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))
	lite := &StoreImpl{}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
	assert.True(t, isPostgres("postgresql://u@h/db"))
	assert.False(t, isPostgres("resumeclf.db"))
}
