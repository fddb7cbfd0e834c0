package costtracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"resumeclf/internal/models"
	"resumeclf/internal/store"
)

// Pricing is the USD cost per token of one model.
type Pricing struct {
	InputPerToken  float64
	OutputPerToken float64
}

// CostEvent represents a single AI usage event.
type CostEvent struct {
	Provider     string // e.g. "openai", "gemini"
	Operation    string // e.g. "categorization"
	Model        string
	InputTokens  int
	OutputTokens int
	RunID        *uuid.UUID
}

// Summary totals every recorded event.
type Summary struct {
	TotalCost         float64
	TotalInputTokens  int64
	TotalOutputTokens int64
}

// CostTracker provides methods to record and report costs.
type CostTracker interface {
	RecordCost(ctx context.Context, event CostEvent) (float64, error)
	Summary(ctx context.Context) (Summary, error)
}

// New returns a tracker writing to usage, priced per provider and model.
// A nil store yields a tracker that only computes costs.
func New(usage store.CostTrackingStore, pricing map[string]map[string]Pricing) CostTracker {
	return &ledgerTracker{usage: usage, pricing: pricing}
}

type ledgerTracker struct {
	usage   store.CostTrackingStore
	pricing map[string]map[string]Pricing
}

// Cost prices an event. Unknown models cost zero.
func (t *ledgerTracker) Cost(e CostEvent) (float64, bool) {
	p, ok := t.pricing[e.Provider][e.Model]
	if !ok {
		return 0, false
	}
	return float64(e.InputTokens)*p.InputPerToken + float64(e.OutputTokens)*p.OutputPerToken, true
}

func (t *ledgerTracker) RecordCost(ctx context.Context, e CostEvent) (float64, error) {
	cost, ok := t.Cost(e)
	if !ok {
		log.Warnf("Pricing info not found for %s model '%s', recording zero cost", e.Provider, e.Model)
	}
	if t.usage == nil {
		return cost, nil
	}
	err := t.usage.RecordUsage(ctx, &models.AIUsageLog{
		Timestamp:    time.Now().UTC(),
		ProviderName: e.Provider,
		ServiceType:  e.Operation,
		ModelName:    e.Model,
		InputTokens:  e.InputTokens,
		OutputTokens: e.OutputTokens,
		Cost:         cost,
		RelatedRunID: e.RunID,
	})
	if err != nil {
		return cost, err
	}
	log.Debugf("Recorded AI usage: Provider=%s, Service=%s, Model=%s, InputTokens=%d, OutputTokens=%d, Cost=%.8f",
		e.Provider, e.Operation, e.Model, e.InputTokens, e.OutputTokens, cost)
	return cost, nil
}

func (t *ledgerTracker) Summary(ctx context.Context) (Summary, error) {
	if t.usage == nil {
		return Summary{}, nil
	}
	var s Summary
	var err error
	s.TotalCost, s.TotalInputTokens, s.TotalOutputTokens, err = t.usage.GetUsageSummary(ctx)
	return s, err
}
