package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/bailian-loader/internal/llm"
	"github.com/giantswarm/bailian-loader/internal/loader"
	"github.com/giantswarm/bailian-loader/internal/server"
)

const maxTemperature = 2.0

func registerChatTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send a prompt to a DashScope (Bailian) model through its OpenAI-compatible API and return the reply."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("User message to send"),
		),
		mcp.WithString("system_message",
			mcp.Description("Optional system prompt"),
		),
		mcp.WithString("model",
			mcp.Description("Model name (e.g. 'qwen-max', 'qwen-plus'). Defaults to the server's configured model."),
		),
		mcp.WithNumber("temperature",
			mcp.Description("Sampling temperature between 0 and 2. Defaults to the server's configured temperature."),
		),
	)
	s.AddTool(chatTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleChat(ctx, request, sc)
	})

	return nil
}

func handleChat(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if sc.Loader == nil {
		return mcp.NewToolResultError("model loader is not configured"), nil
	}

	args := request.GetArguments()

	prompt, ok := args["prompt"].(string)
	if !ok || prompt == "" {
		return mcp.NewToolResultError("prompt is required"), nil
	}

	systemMessage, _ := args["system_message"].(string)

	model := sc.Defaults.Model
	if m, ok := args["model"].(string); ok && m != "" {
		model = m
	}

	temperature := sc.Defaults.Temperature
	if t, ok := args["temperature"].(float64); ok {
		temperature = t
	}
	if temperature < 0 || temperature > maxTemperature {
		return mcp.NewToolResultError(fmt.Sprintf("temperature must be between 0 and %.0f", maxTemperature)), nil
	}

	client, err := sc.Loader.Load(ctx, loader.Request{
		ModelName:   model,
		Temperature: temperature,
		BaseURL:     sc.Defaults.BaseURL,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load model: %v", err)), nil
	}

	resp, err := client.ChatCompletion(ctx, llm.ChatRequest{
		Model:         model,
		SystemMessage: systemMessage,
		UserMessage:   prompt,
		Temperature:   temperature,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}

	return mcp.NewToolResultText(resp.Content), nil
}
