package categorizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"resumeclf/internal/costtracker"
)

// ChatCompletionCreator is the part of *openai.Client the categorizer uses.
type ChatCompletionCreator interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMCategorizer implements ContentCategorizer
// relies on an OpenAI-compatible chat completion API
type LLMCategorizer struct {
	client         ChatCompletionCreator
	model          string
	promptTemplate string
	excerptRunes   int
	costTracker    costtracker.CostTracker
}

// NewLLMCategorizer creates a categorizer. costTracker may be nil.
func NewLLMCategorizer(client ChatCompletionCreator, model, prompt string, costTracker costtracker.CostTracker) *LLMCategorizer {
	return &LLMCategorizer{
		client:         client,
		model:          model,
		promptTemplate: prompt,
		excerptRunes:   DefaultExcerptRunes,
		costTracker:    costTracker,
	}
}

func (c *LLMCategorizer) Name() string { return "llm" }

func (c *LLMCategorizer) Categorize(ctx context.Context, req CategorizationRequest) (CategorizationResult, error) {
	if c.client == nil {
		return CategorizationResult{}, errors.New("LLM categorizer is not initialized with an OpenAI client")
	}
	if len(req.Categories) == 0 {
		return CategorizationResult{}, errors.New("no categories to choose from")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(c.promptTemplate, req, c.excerptRunes)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return CategorizationResult{}, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return CategorizationResult{}, errors.New("no choices returned from OpenAI")
	}

	if c.costTracker != nil && resp.Usage.TotalTokens > 0 {
		_, err := c.costTracker.RecordCost(ctx, costtracker.CostEvent{
			Provider:     "openai",
			Operation:    "categorization",
			Model:        c.model,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		})
		if err != nil {
			log.Errorf("Failed to record AI usage log for categorization: %v", err)
		}
	}

	return parseAnswer(resp.Choices[0].Message.Content, req.Categories)
}
