package categorizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeclf/internal/costtracker"
)

// --- Mock OpenAI Client ---
type mockOpenAIClient struct {
	mockResponse openai.ChatCompletionResponse
	mockError    error
	lastRequest  openai.ChatCompletionRequest
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.lastRequest = req
	if m.mockError != nil {
		return openai.ChatCompletionResponse{}, m.mockError
	}
	return m.mockResponse, nil
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
		Usage:   openai.Usage{PromptTokens: 120, CompletionTokens: 8, TotalTokens: 128},
	}
}

// --- Recording cost tracker ---
type recordingTracker struct {
	events []costtracker.CostEvent
}

func (r *recordingTracker) RecordCost(_ context.Context, e costtracker.CostEvent) (float64, error) {
	r.events = append(r.events, e)
	return 0, nil
}

func (r *recordingTracker) Summary(context.Context) (costtracker.Summary, error) {
	return costtracker.Summary{}, nil
}

var allowed = []string{"Chef", "Healthcare", "Information-Technology"}

func TestLLMCategorizer_Categorize_Parsing(t *testing.T) {
	client := &mockOpenAIClient{mockResponse: chatResponse(`{"category": "information-technology", "confidence": 0.85}`)}
	tracker := &recordingTracker{}
	c := NewLLMCategorizer(client, "gpt-test", "", tracker)

	result, err := c.Categorize(context.Background(), CategorizationRequest{Text: "Go developer. Built APIs.", Categories: allowed})
	require.NoError(t, err)

	assert.Equal(t, "Information-Technology", result.Category)
	assert.InDelta(t, 85.0, result.Confidence, 1e-9)
	assert.Equal(t, []Prediction{{Category: "Information-Technology", Confidence: result.Confidence}}, result.Top)

	prompt := client.lastRequest.Messages[0].Content
	assert.Contains(t, prompt, "Chef, Healthcare, Information-Technology")
	assert.Contains(t, prompt, "Go developer. Built APIs.")
	assert.Equal(t, "gpt-test", client.lastRequest.Model)

	require.Len(t, tracker.events, 1)
	assert.Equal(t, costtracker.CostEvent{Provider: "openai", Operation: "categorization", Model: "gpt-test", InputTokens: 120, OutputTokens: 8}, tracker.events[0])
}

func TestLLMCategorizer_Categorize_ConfidenceClamped(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		want     float64
	}{
		{name: "above one", response: `{"category": "Chef", "confidence": 3}`, want: 100},
		{name: "negative", response: `{"category": "Chef", "confidence": -0.5}`, want: 0},
		{name: "missing", response: `{"category": "Chef"}`, want: 0},
		{name: "code fence", response: "```json\n{\"category\": \"Chef\", \"confidence\": 0.5}\n```", want: 50},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewLLMCategorizer(&mockOpenAIClient{mockResponse: chatResponse(tc.response)}, "gpt-test", "", nil)
			result, err := c.Categorize(context.Background(), CategorizationRequest{Text: "x", Categories: allowed})
			require.NoError(t, err)
			assert.Equal(t, "Chef", result.Category)
			assert.InDelta(t, tc.want, result.Confidence, 1e-9)
		})
	}
}

func TestLLMCategorizer_Categorize_UnknownCategory(t *testing.T) {
	c := NewLLMCategorizer(&mockOpenAIClient{mockResponse: chatResponse(`{"category": "Astronaut", "confidence": 0.9}`)}, "gpt-test", "", nil)
	_, err := c.Categorize(context.Background(), CategorizationRequest{Text: "x", Categories: allowed})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestLLMCategorizer_Categorize_InvalidJSON(t *testing.T) {
	invalidJSON := `This is just plain text, not JSON.`
	c := NewLLMCategorizer(&mockOpenAIClient{mockResponse: chatResponse(invalidJSON)}, "gpt-test", "", nil)

	_, err := c.Categorize(context.Background(), CategorizationRequest{Text: "x", Categories: allowed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse LLM response as JSON")
	assert.Contains(t, err.Error(), invalidJSON)
}

func TestLLMCategorizer_Categorize_APIError(t *testing.T) {
	mockErr := errors.New("simulated API error 429 Too Many Requests")
	c := NewLLMCategorizer(&mockOpenAIClient{mockError: mockErr}, "gpt-test", "", nil)

	_, err := c.Categorize(context.Background(), CategorizationRequest{Text: "x", Categories: allowed})
	assert.ErrorIs(t, err, mockErr)
	assert.Contains(t, err.Error(), "openai chat completion failed")
}

func TestLLMCategorizer_Categorize_EmptyResponse(t *testing.T) {
	c := NewLLMCategorizer(&mockOpenAIClient{}, "gpt-test", "", nil)
	_, err := c.Categorize(context.Background(), CategorizationRequest{Text: "x", Categories: allowed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices returned from OpenAI")
}

func TestLLMCategorizer_Categorize_NoCategories(t *testing.T) {
	client := &mockOpenAIClient{mockResponse: chatResponse(`{"category": "Chef"}`)}
	_, err := NewLLMCategorizer(client, "gpt-test", "", nil).Categorize(context.Background(), CategorizationRequest{Text: "x"})
	assert.Error(t, err)
	assert.Empty(t, client.lastRequest.Model, "no request should be sent")
}

func TestBuildPromptTemplate(t *testing.T) {
	long := strings.Repeat("Cooked meals for guests. ", 50)
	prompt := buildPrompt("Pick from [{{CATEGORIES}}]: {{RESUME}}", CategorizationRequest{Text: long, Categories: []string{"A", "B"}}, 100)
	assert.True(t, strings.HasPrefix(prompt, "Pick from [A, B]: Cooked meals"))
	assert.LessOrEqual(t, len(prompt), len("Pick from [A, B]: ")+100)
}

// --- Mock Gemini model ---
type mockGenerator struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (m *mockGenerator) GenerateContent(context.Context, ...genai.Part) (*genai.GenerateContentResponse, error) {
	return m.resp, m.err
}

func TestGeminiCategorizer_Categorize(t *testing.T) {
	gen := &mockGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{
			genai.Text(`{"category": "Healthcare",`), genai.Text(` "confidence": 0.6}`),
		}}}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 50, CandidatesTokenCount: 6},
	}}
	tracker := &recordingTracker{}
	c := NewGeminiCategorizerWithModel(gen, "gemini-test", "", tracker)

	result, err := c.Categorize(context.Background(), CategorizationRequest{Text: "Registered nurse.", Categories: allowed})
	require.NoError(t, err)
	assert.Equal(t, "Healthcare", result.Category)
	assert.InDelta(t, 60.0, result.Confidence, 1e-9)
	require.Len(t, tracker.events, 1)
	assert.Equal(t, "gemini", tracker.events[0].Provider)
	assert.Equal(t, 50, tracker.events[0].InputTokens)
	assert.NoError(t, c.Close())
}

func TestGeminiCategorizer_Errors(t *testing.T) {
	req := CategorizationRequest{Text: "x", Categories: allowed}

	_, err := NewGeminiCategorizerWithModel(&mockGenerator{err: errors.New("quota")}, "m", "", nil).Categorize(context.Background(), req)
	assert.ErrorContains(t, err, "gemini generate content failed")

	_, err = NewGeminiCategorizerWithModel(&mockGenerator{resp: &genai.GenerateContentResponse{}}, "m", "", nil).Categorize(context.Background(), req)
	assert.ErrorContains(t, err, "no candidates")

	_, err = NewGeminiCategorizer(context.Background(), "", "m", "", nil)
	assert.Error(t, err)
}
