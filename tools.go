package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolHandlerFunc is a tool handler with the upstream client passed in
// explicitly, so one definition table serves every credential-bound server.
type toolHandlerFunc func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error)

type toolDefinition struct {
	tool    mcp.Tool
	handler toolHandlerFunc
}

// allToolDefinitions returns the full tool table. The table is built once at
// startup and validated before any server is constructed.
func allToolDefinitions() []toolDefinition {
	defs := []toolDefinition{helloToolDefinition()}
	defs = append(defs, repoToolDefinitions()...)
	defs = append(defs, issueToolDefinitions()...)
	defs = append(defs, pullToolDefinitions()...)
	defs = append(defs, searchToolDefinitions()...)
	return defs
}

// validateToolDefinitions rejects duplicate tool names. A duplicate is a
// programming error and the process must not start with one.
func validateToolDefinitions(defs []toolDefinition) error {
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if def.tool.Name == "" {
			return fmt.Errorf("tool with empty name")
		}
		if _, dup := seen[def.tool.Name]; dup {
			return fmt.Errorf("duplicate tool name %q", def.tool.Name)
		}
		seen[def.tool.Name] = struct{}{}
	}
	return nil
}

// bindTools registers every definition on the server, closing over the
// client bound to this session's credential.
func bindTools(s *server.MCPServer, defs []toolDefinition, gh *githubClient) {
	for _, def := range defs {
		handler := def.handler
		s.AddTool(def.tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handler(ctx, req, gh)
		})
	}
}

func toolResultJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultErrorFromErr("encode result", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func helloToolDefinition() toolDefinition {
	tool := mcp.NewTool("hello",
		mcp.WithDescription("Verify connectivity and credential wiring. Returns server identity and whether a GitHub token is attached to this session."),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
		return toolResultJSON(map[string]any{
			"message":  "octomcp is up",
			"version":  defaultVersion,
			"hasToken": gh.hasToken(),
		})
	}
	return toolDefinition{tool: tool, handler: handler}
}
