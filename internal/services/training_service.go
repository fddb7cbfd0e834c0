package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"resumeclf/internal/artifacts"
	"resumeclf/internal/dataset"
	"resumeclf/internal/inference"
	"resumeclf/internal/models"
	"resumeclf/internal/pipeline"
	"resumeclf/internal/store"
)

// TrainRequest selects the dataset of one training run. When InfoPath is
// set it takes precedence over Source.
type TrainRequest struct {
	RunID      uuid.UUID
	Source     dataset.Source
	InfoPath   string
	HTML       bool
	MaxSamples int
}

// TrainingService runs the training pipeline end to end and persists the
// resulting model.
type TrainingService struct {
	runs     store.TrainingRunStore
	modelDir string
	opts     pipeline.Options
	model    *inference.Service
}

// NewTrainingService builds the service. runs and model may be nil: without
// runs nothing is recorded in the ledger, without model nothing is reloaded.
func NewTrainingService(runs store.TrainingRunStore, modelDir string, opts pipeline.Options, model *inference.Service) *TrainingService {
	return &TrainingService{runs: runs, modelDir: modelDir, opts: opts, model: model}
}

// Run trains a model and saves its artifacts. With a ledger and a RunID the
// run moves to running and ends completed or failed.
func (s *TrainingService) Run(ctx context.Context, req TrainRequest) (*pipeline.Result, error) {
	src := req.Source
	if req.InfoPath != "" {
		var err error
		if src, err = dataset.LoadInfo(req.InfoPath); err != nil {
			s.fail(ctx, req, err)
			return nil, err
		}
	}
	s.start(ctx, req, src)

	res, err := s.train(src, req)
	if err != nil {
		s.fail(ctx, req, err)
		return nil, err
	}

	if s.model != nil {
		if err := s.model.Use(res.Model); err != nil {
			log.Warnf("Trained model not installed: %v", err)
		}
	}
	if s.runs != nil && req.RunID != uuid.Nil {
		report, err := json.Marshal(res.Report)
		if err != nil {
			log.Warnf("Failed to encode report for run %s: %v", req.RunID, err)
		}
		err = s.runs.CompleteRun(ctx, req.RunID, models.RunResult{
			TotalSamples: res.TotalSamples,
			TrainSamples: res.TrainSamples,
			TestSamples:  res.TestSamples,
			Categories:   res.Model.Categories,
			Accuracy:     res.Accuracy,
			ReportJSON:   report,
		})
		if err != nil {
			log.Errorf("Failed to record completion of run %s: %v", req.RunID, err)
		}
	}
	return res, nil
}

func (s *TrainingService) train(src dataset.Source, req TrainRequest) (*pipeline.Result, error) {
	rows, err := dataset.Load(src, dataset.Options{HTML: req.HTML})
	if err != nil {
		return nil, err
	}
	opts := s.opts
	if req.MaxSamples > 0 {
		opts.MaxSamples = req.MaxSamples
	}
	res, err := pipeline.Train(rows, opts)
	if err != nil {
		return nil, err
	}
	if err := artifacts.Save(s.modelDir, res.Model); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	log.Infof("Model saved to %s (accuracy %.4f)", s.modelDir, res.Accuracy)
	return res, nil
}

func (s *TrainingService) start(ctx context.Context, req TrainRequest, src dataset.Source) {
	if s.runs == nil || req.RunID == uuid.Nil {
		return
	}
	err := s.runs.UpdateRunStatus(ctx, req.RunID, models.RunStatusRunning)
	if errors.Is(err, store.ErrNotFound) {
		err = s.runs.CreateRun(ctx, &models.TrainingRun{
			ID:             req.RunID,
			Status:         models.RunStatusRunning,
			DatasetPath:    src.Path,
			TextColumn:     src.TextColumn,
			CategoryColumn: src.CategoryColumn,
			MaxSamples:     req.MaxSamples,
		})
	}
	if err != nil {
		log.Errorf("Failed to mark run %s running: %v", req.RunID, err)
	}
}

func (s *TrainingService) fail(ctx context.Context, req TrainRequest, cause error) {
	log.Errorf("Training run %s failed: %v", req.RunID, cause)
	if s.runs == nil || req.RunID == uuid.Nil {
		return
	}
	if err := s.runs.FailRun(ctx, req.RunID, cause.Error()); err != nil {
		log.Errorf("Failed to mark run %s failed: %v", req.RunID, err)
	}
}
