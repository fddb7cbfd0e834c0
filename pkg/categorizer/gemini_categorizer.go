package categorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"resumeclf/internal/costtracker"
)

// ContentGenerator is the part of *genai.GenerativeModel the categorizer uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiCategorizer asks a Gemini model for the category.
type GeminiCategorizer struct {
	client         *genai.Client // nil when built around a custom generator
	model          ContentGenerator
	modelName      string
	promptTemplate string
	excerptRunes   int
	costTracker    costtracker.CostTracker
}

// NewGeminiCategorizer connects to the Gemini API with apiKey.
func NewGeminiCategorizer(ctx context.Context, apiKey, modelName, prompt string, costTracker costtracker.CostTracker) (*GeminiCategorizer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key not provided")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	m := client.GenerativeModel(modelName)
	m.ResponseMIMEType = "application/json"
	m.SetTemperature(0)

	c := NewGeminiCategorizerWithModel(m, modelName, prompt, costTracker)
	c.client = client
	log.Infof("Gemini categorizer initialized with model %s", modelName)
	return c, nil
}

// NewGeminiCategorizerWithModel builds a categorizer around an existing generator.
func NewGeminiCategorizerWithModel(model ContentGenerator, modelName, prompt string, costTracker costtracker.CostTracker) *GeminiCategorizer {
	return &GeminiCategorizer{
		model:          model,
		modelName:      modelName,
		promptTemplate: prompt,
		excerptRunes:   DefaultExcerptRunes,
		costTracker:    costTracker,
	}
}

func (c *GeminiCategorizer) Name() string { return "gemini" }

// Close releases the underlying client.
func (c *GeminiCategorizer) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *GeminiCategorizer) Categorize(ctx context.Context, req CategorizationRequest) (CategorizationResult, error) {
	if len(req.Categories) == 0 {
		return CategorizationResult{}, errors.New("no categories to choose from")
	}
	resp, err := c.model.GenerateContent(ctx, genai.Text(buildPrompt(c.promptTemplate, req, c.excerptRunes)))
	if err != nil {
		return CategorizationResult{}, fmt.Errorf("gemini generate content failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return CategorizationResult{}, errors.New("no candidates returned from Gemini")
	}

	if c.costTracker != nil && resp.UsageMetadata != nil {
		_, err := c.costTracker.RecordCost(ctx, costtracker.CostEvent{
			Provider:     "gemini",
			Operation:    "categorization",
			Model:        c.modelName,
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		})
		if err != nil {
			log.Errorf("Failed to record AI usage log for categorization: %v", err)
		}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return parseAnswer(b.String(), req.Categories)
}
