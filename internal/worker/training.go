// Package worker holds the asynq task handlers.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"resumeclf/internal/dataset"
	"resumeclf/internal/pipeline"
	"resumeclf/internal/services"
	"resumeclf/internal/tasks"
)

// Trainer runs one training request.
type Trainer interface {
	Run(ctx context.Context, req services.TrainRequest) (*pipeline.Result, error)
}

// TrainingDeps holds the dependencies of the training handler.
type TrainingDeps struct {
	Trainer Trainer
}

// HandleTrainingRun returns the handler for tasks.TypeTrainingRun. A payload
// that cannot be decoded is never retried; training failures are recorded by
// the trainer and returned so asynq archives the task.
func HandleTrainingRun(deps TrainingDeps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		p, err := tasks.DecodeTrainingPayload(t.Payload())
		if err != nil {
			log.Errorf("Dropping training task: %v", err)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		log.Infof("Starting training run %s", p.RunID)

		res, err := deps.Trainer.Run(ctx, services.TrainRequest{
			RunID: p.RunID,
			Source: dataset.Source{
				Path:           p.DatasetPath,
				TextColumn:     p.TextColumn,
				CategoryColumn: p.CategoryColumn,
			},
			InfoPath:   p.InfoPath,
			HTML:       p.HTML,
			MaxSamples: p.MaxSamples,
		})
		if err != nil {
			return fmt.Errorf("training run %s: %w", p.RunID, err)
		}
		log.Infof("Training run %s completed: accuracy %.4f on %d test samples (%s)",
			p.RunID, res.Accuracy, res.TestSamples, res.Duration.Round(time.Millisecond))
		return nil
	}
}

// RegisterHandlers registers every task handler on mux.
func RegisterHandlers(mux *asynq.ServeMux, deps TrainingDeps) {
	log.Debugf("Registering handler for %s", tasks.TypeTrainingRun)
	mux.HandleFunc(tasks.TypeTrainingRun, HandleTrainingRun(deps))
}
