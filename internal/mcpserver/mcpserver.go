// Package mcpserver exposes resume classification as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"resumeclf/internal/services"
)

// New builds an MCP server with the classify_resume and list_categories tools.
func New(cls *services.ClassificationService, version string) *server.MCPServer {
	s := server.NewMCPServer("resumeclf", version)
	registerClassifyResume(s, cls)
	registerListCategories(s, cls)
	return s
}

// ServeStdio serves s over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerClassifyResume(s *server.MCPServer, cls *services.ClassificationService) {
	tool := mcp.NewTool("classify_resume",
		mcp.WithDescription("Predict the job category of a resume. Returns the category, its confidence (0-100) and the top 3 candidates."),
	)
	tool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"resume_text": map[string]interface{}{"type": "string", "description": "Plain resume text, at least 50 characters"},
		},
		Required: []string{"resume_text"},
	}
	s.AddTool(tool, classifyResume(cls))
}

func classifyResume(cls *services.ClassificationService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		text, _ := args["resume_text"].(string)
		if strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("missing required field: resume_text"), nil
		}

		res, err := cls.Classify(ctx, text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to classify resume: %v", err)), nil
		}
		out, err := json.Marshal(res)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func registerListCategories(s *server.MCPServer, cls *services.ClassificationService) {
	tool := mcp.NewTool("list_categories",
		mcp.WithDescription("List the job categories the classifier can predict"),
	)
	tool.InputSchema = mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
	s.AddTool(tool, listCategories(cls))
}

func listCategories(cls *services.ClassificationService) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cats, err := cls.Categories(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Categories unavailable: %v", err)), nil
		}
		return mcp.NewToolResultText(strings.Join(cats, "\n")), nil
	}
}
