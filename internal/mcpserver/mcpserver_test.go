package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeclf/internal/inference"
	"resumeclf/internal/services"
	"resumeclf/internal/testutil"
	"resumeclf/pkg/categorizer"
)

func newService(t *testing.T, loaded bool) *services.ClassificationService {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "models")
	model := inference.New(dir)
	if loaded {
		testutil.SaveModel(t, dir)
		require.NoError(t, model.Load())
	}
	return services.NewClassificationService(categorizer.NewForestCategorizer(model), model, nil)
}

func call(args any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestClassifyResume(t *testing.T) {
	h := classifyResume(newService(t, true))

	res, err := h(context.Background(), call(map[string]interface{}{"resume_text": testutil.Resume("Software")}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var got categorizer.CategorizationResult
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "Software", got.Category)
	assert.Len(t, got.Top, 3)
}

func TestClassifyResumeErrors(t *testing.T) {
	h := classifyResume(newService(t, true))
	for name, args := range map[string]any{
		"bad format": "resume",
		"missing":    map[string]interface{}{},
		"too short":  map[string]interface{}{"resume_text": "chef"},
	} {
		res, err := h(context.Background(), call(args))
		require.NoError(t, err, name)
		assert.True(t, res.IsError, name)
	}
}

func TestListCategories(t *testing.T) {
	res, err := listCategories(newService(t, true))(context.Background(), call(map[string]interface{}{}))
	require.NoError(t, err)
	assert.Equal(t, "Chef\nHealthcare\nSoftware", text(t, res))

	res, err = listCategories(newService(t, false))(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New(newService(t, false), "test"))
}
