package primary

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resumeclf/internal/models"
)

// RecordPrediction appends a prediction log entry.
func (s *StoreImpl) RecordPrediction(ctx context.Context, e *models.PredictionLog) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	query := s.rebind(`
		INSERT INTO prediction_logs (backend, predicted_category, confidence, text_length, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)
	err := s.db.QueryRowContext(ctx, query, e.Backend, e.PredictedCategory, e.Confidence, e.TextLength, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to insert prediction log: %w", err)
	}
	return nil
}

// ListPredictions returns the most recent prediction log entries.
func (s *StoreImpl) ListPredictions(ctx context.Context, limit int) ([]*models.PredictionLog, error) {
	query := s.rebind(`
		SELECT id, backend, predicted_category, confidence, text_length, created_at
		FROM prediction_logs
		ORDER BY id DESC
		LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction logs: %w", err)
	}
	defer rows.Close()

	var out []*models.PredictionLog
	for rows.Next() {
		var e models.PredictionLog
		if err := rows.Scan(&e.ID, &e.Backend, &e.PredictedCategory, &e.Confidence, &e.TextLength, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction log: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// RecordUsage inserts a new AI usage log entry.
func (s *StoreImpl) RecordUsage(ctx context.Context, log *models.AIUsageLog) error {
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	var runID sql.NullString
	if log.RelatedRunID != nil {
		runID = sql.NullString{String: log.RelatedRunID.String(), Valid: true}
	}
	query := s.rebind(`
		INSERT INTO ai_usage_logs (
			timestamp, provider_name, service_type, model_name,
			input_tokens, output_tokens, cost, related_run_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := s.db.QueryRowContext(ctx, query,
		log.Timestamp, log.ProviderName, log.ServiceType, log.ModelName,
		log.InputTokens, log.OutputTokens, log.Cost, runID,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("failed to insert ai_usage_log: %w", err)
	}
	return nil
}

// ListUsage returns AI usage logs, newest first.
func (s *StoreImpl) ListUsage(ctx context.Context, limit, offset int) ([]*models.AIUsageLog, error) {
	query := s.rebind(`
		SELECT id, timestamp, provider_name, service_type, model_name,
		       input_tokens, output_tokens, cost, related_run_id
		FROM ai_usage_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?`)
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query ai_usage_logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AIUsageLog
	for rows.Next() {
		var (
			l     models.AIUsageLog
			runID sql.NullString
		)
		err := rows.Scan(&l.ID, &l.Timestamp, &l.ProviderName, &l.ServiceType, &l.ModelName,
			&l.InputTokens, &l.OutputTokens, &l.Cost, &runID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ai_usage_log: %w", err)
		}
		if runID.Valid {
			if id, err := uuid.Parse(runID.String); err == nil {
				l.RelatedRunID = &id
			}
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

// GetUsageSummary returns the total cost and token usage.
func (s *StoreImpl) GetUsageSummary(ctx context.Context) (totalCost float64, totalInputTokens, totalOutputTokens int64, err error) {
	query := `
		SELECT
			COALESCE(SUM(cost), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0)
		FROM ai_usage_logs`
	err = s.db.QueryRowContext(ctx, query).Scan(&totalCost, &totalInputTokens, &totalOutputTokens)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to summarize ai_usage_logs: %w", err)
	}
	return totalCost, totalInputTokens, totalOutputTokens, nil
}
