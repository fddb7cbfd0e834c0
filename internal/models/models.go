package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TrainingRun is one row of the training ledger.
type TrainingRun struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Status         string          `db:"status" json:"status"`
	DatasetPath    string          `db:"dataset_path" json:"dataset_path"`
	TextColumn     string          `db:"text_column" json:"text_column"`
	CategoryColumn string          `db:"category_column" json:"category_column"`
	MaxSamples     int             `db:"max_samples" json:"max_samples,omitempty"`
	TotalSamples   int             `db:"total_samples" json:"total_samples"`
	TrainSamples   int             `db:"train_samples" json:"train_samples"`
	TestSamples    int             `db:"test_samples" json:"test_samples"`
	Categories     []string        `db:"categories" json:"categories,omitempty"`
	Accuracy       *float64        `db:"accuracy" json:"accuracy,omitempty"` // nil until completed
	ReportJSON     json.RawMessage `db:"report_json" json:"report,omitempty"`
	Error          string          `db:"error" json:"error,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// RunResult carries the outcome of a successful training run.
type RunResult struct {
	TotalSamples int
	TrainSamples int
	TestSamples  int
	Categories   []string
	Accuracy     float64
	ReportJSON   json.RawMessage
}

// PredictionLog records one served prediction. The resume text itself is
// not stored.
type PredictionLog struct {
	ID                int64     `db:"id" json:"id"`
	Backend           string    `db:"backend" json:"backend"`
	PredictedCategory string    `db:"predicted_category" json:"predicted_category"`
	Confidence        float64   `db:"confidence" json:"confidence"`
	TextLength        int       `db:"text_length" json:"text_length"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// AIUsageLog represents a record of LLM API usage for cost tracking.
type AIUsageLog struct {
	ID           int64      `db:"id" json:"id"`
	Timestamp    time.Time  `db:"timestamp" json:"timestamp"`
	ProviderName string     `db:"provider_name" json:"provider_name"`
	ServiceType  string     `db:"service_type" json:"service_type"` // e.g. "categorization"
	ModelName    string     `db:"model_name" json:"model_name"`
	InputTokens  int        `db:"input_tokens" json:"input_tokens"`
	OutputTokens int        `db:"output_tokens" json:"output_tokens"`
	Cost         float64    `db:"cost" json:"cost"`
	RelatedRunID *uuid.UUID `db:"related_run_id" json:"related_run_id,omitempty"` // nullable
}
