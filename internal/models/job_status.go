package models

// Training run status values.
const (
	RunStatusEnqueued  = "enqueued"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Prediction backends.
const (
	BackendForest = "forest"
	BackendLLM    = "llm"
)
