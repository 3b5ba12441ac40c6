package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func searchToolDefinitions() []toolDefinition {
	return []toolDefinition{
		{
			tool: mcp.NewTool("search_code",
				mcp.WithDescription("Search file contents across GitHub using the code search syntax."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query, e.g. 'http.HandlerFunc repo:golang/go'")),
				mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
				mcp.WithNumber("per_page", mcp.Description("Results per page, max 100")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				query, err := req.RequireString("query")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.SearchCode(ctx, query, req.GetInt("page", 0), req.GetInt("per_page", 0))
				if err != nil {
					return mcp.NewToolResultErrorFromErr("search code", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("search_issues",
				mcp.WithDescription("Search issues and pull requests across GitHub."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query, e.g. 'is:issue is:open label:bug repo:owner/name'")),
				mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
				mcp.WithNumber("per_page", mcp.Description("Results per page, max 100")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				query, err := req.RequireString("query")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.SearchIssues(ctx, query, req.GetInt("page", 0), req.GetInt("per_page", 0))
				if err != nil {
					return mcp.NewToolResultErrorFromErr("search issues", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("search_users",
				mcp.WithDescription("Search GitHub user and organization accounts."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query, e.g. 'fullname:smith type:user'")),
				mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
				mcp.WithNumber("per_page", mcp.Description("Results per page, max 100")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				query, err := req.RequireString("query")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.SearchUsers(ctx, query, req.GetInt("page", 0), req.GetInt("per_page", 0))
				if err != nil {
					return mcp.NewToolResultErrorFromErr("search users", err), nil
				}
				return toolResultJSON(result)
			},
		},
	}
}
