package apihandlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"resumeclf/internal/inference"
	"resumeclf/internal/services"
	"resumeclf/internal/store"
	"resumeclf/internal/tasks"
	"resumeclf/pkg/categorizer"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Resume Category Classifier"

// APIHandler serves the HTTP API. Runs and Jobs may be nil, in which case the
// run endpoints answer 503.
type APIHandler struct {
	Classification *services.ClassificationService
	Runs           store.TrainingRunStore
	Jobs           store.JobClient

	// Columns fill text_column and category_column when a run request omits them.
	TextColumn     string
	CategoryColumn string
}

type predictRequest struct {
	ResumeText *string `json:"resume_text"`
}

type batchRequest struct {
	Resumes *[]string `json:"resumes"`
}

type batchItemError struct {
	Error string `json:"error"`
}

// HealthHandler reports liveness and whether a model is loaded.
func (h *APIHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"model_loaded": h.Classification.Ready(),
		"service":      ServiceName,
	})
}

// CategoriesHandler lists the categories of the loaded model.
func (h *APIHandler) CategoriesHandler(c *gin.Context) {
	cats, err := h.Classification.Categories(c.Request.Context())
	if err != nil {
		Unavailable(c, "Model not loaded")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats, "count": len(cats)})
}

// PredictHandler classifies one resume.
func (h *APIHandler) PredictHandler(c *gin.Context) {
	if !h.Classification.Ready() {
		Unavailable(c, "Model not loaded. Please train the model first.")
		return
	}
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ResumeText == nil {
		BadRequest(c, "Missing 'resume_text' in request body")
		return
	}

	res, err := h.Classification.Classify(c.Request.Context(), *req.ResumeText)
	if err != nil {
		h.classifyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}

// PredictBatchHandler classifies every resume of the request independently.
func (h *APIHandler) PredictBatchHandler(c *gin.Context) {
	if !h.Classification.Ready() {
		Unavailable(c, "Model not loaded")
		return
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "'resumes' must be an array of strings")
		return
	}
	if req.Resumes == nil {
		BadRequest(c, "Missing 'resumes' array in request body")
		return
	}

	items := h.Classification.ClassifyBatch(c.Request.Context(), *req.Resumes)
	data := make([]any, len(items))
	for i, it := range items {
		switch {
		case it.Err == nil:
			data[i] = it.Result
		case errors.Is(it.Err, services.ErrTextTooShort):
			data[i] = batchItemError{Error: fmt.Sprintf("Resume text too short (min %d chars)", inference.MinTextLength)}
		default:
			data[i] = batchItemError{Error: it.Err.Error()}
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "count": len(data)})
}

func (h *APIHandler) classifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTextTooShort):
		BadRequest(c, fmt.Sprintf("Resume text must be at least %d characters", inference.MinTextLength))
	case errors.Is(err, inference.ErrInvalidInput):
		BadRequest(c, err.Error())
	case errors.Is(err, inference.ErrModelNotLoaded), errors.Is(err, services.ErrNoCategories):
		Unavailable(c, "Model not loaded. Please train the model first.")
	case errors.Is(err, categorizer.ErrUnknownCategory):
		JSONError(c, http.StatusBadGateway, "bad_upstream_answer", err.Error())
	default:
		log.Errorf("PredictHandler: %v", err)
		Internal(c, err.Error())
	}
}

// ListRunsHandler lists training runs, newest first.
func (h *APIHandler) ListRunsHandler(c *gin.Context) {
	if h.Runs == nil {
		JSONError(c, http.StatusServiceUnavailable, "unavailable", "Run ledger not configured")
		return
	}
	limit, offset, err := parsePaging(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	runs, err := h.Runs.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		Internal(c, fmt.Sprintf("ListRunsHandler: failed to list runs: %v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": runs, "count": len(runs)})
}

// GetRunHandler returns one training run.
func (h *APIHandler) GetRunHandler(c *gin.Context) {
	if h.Runs == nil {
		JSONError(c, http.StatusServiceUnavailable, "unavailable", "Run ledger not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "Invalid run ID format")
		return
	}
	run, err := h.Runs.GetRun(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		NotFound(c, fmt.Sprintf("Training run not found with ID: %s", id))
		return
	}
	if err != nil {
		Internal(c, fmt.Sprintf("GetRunHandler: failed to get run: %v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": run})
}

// EnqueueRunHandler schedules a training run on the worker queue.
func (h *APIHandler) EnqueueRunHandler(c *gin.Context) {
	if h.Jobs == nil {
		JSONError(c, http.StatusServiceUnavailable, "unavailable", "Job queue not configured")
		return
	}
	var p tasks.TrainingPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if p.DatasetPath == "" && p.InfoPath == "" {
		BadRequest(c, "One of 'dataset_path' or 'info_path' is required")
		return
	}
	p.RunID = uuid.Nil
	if p.TextColumn == "" {
		p.TextColumn = h.TextColumn
	}
	if p.CategoryColumn == "" {
		p.CategoryColumn = h.CategoryColumn
	}
	id, err := h.Jobs.EnqueueTraining(c.Request.Context(), p)
	if err != nil {
		Internal(c, fmt.Sprintf("EnqueueRunHandler: %v", err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "data": gin.H{"run_id": id}})
}

func parsePaging(c *gin.Context) (limit, offset int, err error) {
	limit, offset = 20, 0
	if l := c.Query("limit"); l != "" {
		if limit, err = strconv.Atoi(l); err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("invalid limit: %s", l)
		}
	}
	if o := c.Query("offset"); o != "" {
		if offset, err = strconv.Atoi(o); err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset: %s", o)
		}
	}
	return limit, offset, nil
}
