package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// TypeTrainingRun is the task type for a full training run.
	TypeTrainingRun = "training:run"

	// QueueTraining is the queue training tasks are enqueued on.
	QueueTraining = "training"
)

// TrainingPayload describes what a training task should train on.
type TrainingPayload struct {
	RunID          uuid.UUID `json:"run_id"`
	DatasetPath    string    `json:"dataset_path"`
	TextColumn     string    `json:"text_column"`
	CategoryColumn string    `json:"category_column"`
	InfoPath       string    `json:"info_path,omitempty"` // dataset_info.json, used when DatasetPath is empty
	HTML           bool      `json:"html,omitempty"`
	MaxSamples     int       `json:"max_samples,omitempty"`
}

// NewTrainingTask builds the asynq task for p. Training is never retried:
// a failed run is recorded and must be started again by an operator.
func NewTrainingTask(p TrainingPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode training payload: %w", err)
	}
	return asynq.NewTask(TypeTrainingRun, data,
		asynq.Queue(QueueTraining),
		asynq.MaxRetry(0),
		asynq.TaskID(p.RunID.String()),
	), nil
}

// DecodeTrainingPayload parses the payload of a training task.
func DecodeTrainingPayload(data []byte) (TrainingPayload, error) {
	var p TrainingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode training payload: %w", err)
	}
	if p.RunID == uuid.Nil {
		return p, fmt.Errorf("decode training payload: missing run_id")
	}
	return p, nil
}
