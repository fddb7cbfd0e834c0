package primary

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resumeclf/internal/models"
	"resumeclf/internal/store"
)

const runColumns = `id, status, dataset_path, text_column, category_column, max_samples,
	total_samples, train_samples, test_samples, categories, accuracy, report_json,
	error, created_at, updated_at`

// CreateRun inserts a new training run. ID, status and timestamps are filled
// in when empty. An ID that is already recorded yields store.ErrDuplicate.
func (s *StoreImpl) CreateRun(ctx context.Context, run *models.TrainingRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = models.RunStatusEnqueued
	}
	now := time.Now().UTC()
	run.CreatedAt, run.UpdatedAt = now, now

	cats, err := json.Marshal(nonNil(run.Categories))
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	query := s.rebind(`
		INSERT INTO training_runs (id, status, dataset_path, text_column, category_column,
			max_samples, categories, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		run.ID.String(), run.Status, run.DatasetPath, run.TextColumn, run.CategoryColumn,
		run.MaxSamples, string(cats), now, now,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("run %s: %w", run.ID, store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert training run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRunStatus sets the status of a run.
func (s *StoreImpl) UpdateRunStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := s.rebind(`UPDATE training_runs SET status = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update status of run %s: %w", id, err)
	}
	return expectOne(res, id)
}

// CompleteRun stores the evaluation of a finished run and marks it completed.
func (s *StoreImpl) CompleteRun(ctx context.Context, id uuid.UUID, r models.RunResult) error {
	cats, err := json.Marshal(nonNil(r.Categories))
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	query := s.rebind(`
		UPDATE training_runs
		SET status = ?, total_samples = ?, train_samples = ?, test_samples = ?,
			categories = ?, accuracy = ?, report_json = ?, error = '', updated_at = ?
		WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query,
		models.RunStatusCompleted, r.TotalSamples, r.TrainSamples, r.TestSamples,
		string(cats), r.Accuracy, string(r.ReportJSON), time.Now().UTC(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", id, err)
	}
	return expectOne(res, id)
}

// FailRun marks a run failed with reason.
func (s *StoreImpl) FailRun(ctx context.Context, id uuid.UUID, reason string) error {
	query := s.rebind(`UPDATE training_runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, models.RunStatusFailed, reason, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to mark run %s failed: %w", id, err)
	}
	return expectOne(res, id)
}

// GetRun returns one run or store.ErrNotFound.
func (s *StoreImpl) GetRun(ctx context.Context, id uuid.UUID) (*models.TrainingRun, error) {
	query := s.rebind(`SELECT ` + runColumns + ` FROM training_runs WHERE id = ?`)
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *StoreImpl) ListRuns(ctx context.Context, limit, offset int) ([]*models.TrainingRun, error) {
	query := s.rebind(`SELECT ` + runColumns + ` FROM training_runs ORDER BY created_at DESC, id LIMIT ? OFFSET ?`)
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.TrainingRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.TrainingRun, error) {
	var (
		run      models.TrainingRun
		id       string
		cats     string
		accuracy sql.NullFloat64
		report   string
	)
	err := row.Scan(
		&id, &run.Status, &run.DatasetPath, &run.TextColumn, &run.CategoryColumn, &run.MaxSamples,
		&run.TotalSamples, &run.TrainSamples, &run.TestSamples, &cats, &accuracy, &report,
		&run.Error, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("bad run id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(cats), &run.Categories); err != nil {
		return nil, fmt.Errorf("bad categories for run %s: %w", id, err)
	}
	if accuracy.Valid {
		run.Accuracy = &accuracy.Float64
	}
	if report != "" {
		run.ReportJSON = json.RawMessage(report)
	}
	return &run, nil
}

func expectOne(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var (
	_ store.TrainingRunStore   = (*StoreImpl)(nil)
	_ store.PredictionLogStore = (*StoreImpl)(nil)
	_ store.CostTrackingStore  = (*StoreImpl)(nil)
)
