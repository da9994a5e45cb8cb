package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/bailian-loader/internal/loader"
	"github.com/giantswarm/bailian-loader/internal/server"
)

func registerModelTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("list_models",
		mcp.WithDescription("List the models available to the configured DashScope API key"),
	)
	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListModels(ctx, request, sc)
	})

	return nil
}

func handleListModels(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if sc.Loader == nil {
		return mcp.NewToolResultError("model loader is not configured"), nil
	}

	client, err := sc.Loader.Load(ctx, loader.Request{
		ModelName:   sc.Defaults.Model,
		Temperature: sc.Defaults.Temperature,
		BaseURL:     sc.Defaults.BaseURL,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load model: %v", err)), nil
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list models: %v", err)), nil
	}

	data, err := json.MarshalIndent(models, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal models: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
