package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"resumeclf/internal/models"
	"resumeclf/internal/tasks"
)

// enqueuer is the part of *asynq.Client the job client needs.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// AsynqJobClient enqueues training tasks and records them in the run ledger.
type AsynqJobClient struct {
	client enqueuer
	runs   TrainingRunStore
}

var _ JobClient = (*AsynqJobClient)(nil)

// NewAsynqJobClient connects lazily to Redis at opt.
func NewAsynqJobClient(opt asynq.RedisClientOpt, runs TrainingRunStore) (*AsynqJobClient, error) {
	if runs == nil {
		return nil, fmt.Errorf("TrainingRunStore cannot be nil for AsynqJobClient")
	}
	return &AsynqJobClient{client: asynq.NewClient(opt), runs: runs}, nil
}

func (jc *AsynqJobClient) Close() error {
	return jc.client.Close()
}

// EnqueueTraining creates an enqueued run and schedules its task. If the
// task cannot be enqueued the run is marked failed.
func (jc *AsynqJobClient) EnqueueTraining(ctx context.Context, p tasks.TrainingPayload) (uuid.UUID, error) {
	if p.RunID == uuid.Nil {
		p.RunID = uuid.New()
	}
	run := &models.TrainingRun{
		ID:             p.RunID,
		Status:         models.RunStatusEnqueued,
		DatasetPath:    p.DatasetPath,
		TextColumn:     p.TextColumn,
		CategoryColumn: p.CategoryColumn,
		MaxSamples:     p.MaxSamples,
	}
	if run.DatasetPath == "" {
		run.DatasetPath = p.InfoPath
	}
	if err := jc.runs.CreateRun(ctx, run); err != nil {
		return uuid.Nil, fmt.Errorf("record training run: %w", err)
	}

	task, err := tasks.NewTrainingTask(p)
	if err != nil {
		return uuid.Nil, err
	}
	info, err := jc.client.EnqueueContext(ctx, task)
	if err != nil {
		log.Errorf("Failed to enqueue task type '%s' for run %s: %v", task.Type(), p.RunID, err)
		if ferr := jc.runs.FailRun(ctx, p.RunID, "enqueue: "+err.Error()); ferr != nil {
			log.Errorf("Failed to mark run %s as failed: %v", p.RunID, ferr)
		}
		return uuid.Nil, fmt.Errorf("enqueue training run %s: %w", p.RunID, err)
	}
	log.Debugf("Enqueued task type '%s' on queue %s, id %s", task.Type(), info.Queue, info.ID)
	return p.RunID, nil
}
