package store

import (
	"context"

	"github.com/google/uuid"

	"resumeclf/internal/models"
	"resumeclf/internal/tasks"
)

// --- Job Client ---

type JobClient interface {
	// EnqueueTraining records an enqueued run and schedules it; the returned
	// ID identifies both the run and the task.
	EnqueueTraining(ctx context.Context, payload tasks.TrainingPayload) (uuid.UUID, error)
	Close() error
}

// --- Training Run Store ---

type TrainingRunStore interface {
	CreateRun(ctx context.Context, run *models.TrainingRun) error
	UpdateRunStatus(ctx context.Context, id uuid.UUID, status string) error
	CompleteRun(ctx context.Context, id uuid.UUID, result models.RunResult) error
	FailRun(ctx context.Context, id uuid.UUID, reason string) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.TrainingRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*models.TrainingRun, error)
}

// --- Prediction Log Store ---

type PredictionLogStore interface {
	RecordPrediction(ctx context.Context, entry *models.PredictionLog) error
	ListPredictions(ctx context.Context, limit int) ([]*models.PredictionLog, error)
}

// --- Cost Tracking Store ---

type CostTrackingStore interface {
	RecordUsage(ctx context.Context, log *models.AIUsageLog) error
	ListUsage(ctx context.Context, limit, offset int) ([]*models.AIUsageLog, error)
	GetUsageSummary(ctx context.Context) (totalCost float64, totalInputTokens, totalOutputTokens int64, err error)
}
