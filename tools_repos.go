package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func repoToolDefinitions() []toolDefinition {
	return []toolDefinition{
		{
			tool: mcp.NewTool("search_repositories",
				mcp.WithDescription("Search GitHub repositories using the GitHub search syntax."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query, e.g. 'language:go stars:>1000'")),
				mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
				mcp.WithNumber("per_page", mcp.Description("Results per page, max 100")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				query, err := req.RequireString("query")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.SearchRepositories(ctx, query, req.GetInt("page", 0), req.GetInt("per_page", 0))
				if err != nil {
					return mcp.NewToolResultErrorFromErr("search repositories", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("get_repository",
				mcp.WithDescription("Get details for a single repository."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.GetRepository(ctx, owner, repo)
				if err != nil {
					return mcp.NewToolResultErrorFromErr("get repository", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("list_branches",
				mcp.WithDescription("List branches in a repository."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
				mcp.WithNumber("per_page", mcp.Description("Results per page, max 100")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.ListBranches(ctx, owner, repo, req.GetInt("page", 0), req.GetInt("per_page", 0))
				if err != nil {
					return mcp.NewToolResultErrorFromErr("list branches", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("list_commits",
				mcp.WithDescription("List commits on a branch or ref, newest first."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithString("sha", mcp.Description("Branch name, tag, or commit SHA to start from")),
				mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
				mcp.WithNumber("per_page", mcp.Description("Results per page, max 100")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.ListCommits(ctx, owner, repo, req.GetString("sha", ""), req.GetInt("page", 0), req.GetInt("per_page", 0))
				if err != nil {
					return mcp.NewToolResultErrorFromErr("list commits", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("get_file_contents",
				mcp.WithDescription("Get the contents of a file or directory listing from a repository. File content is base64 encoded."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithString("path", mcp.Required(), mcp.Description("Path to the file or directory")),
				mcp.WithString("ref", mcp.Description("Branch, tag, or commit SHA")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				filePath, err := req.RequireString("path")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.GetFileContents(ctx, owner, repo, filePath, req.GetString("ref", ""))
				if err != nil {
					return mcp.NewToolResultErrorFromErr("get file contents", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("create_or_update_file",
				mcp.WithDescription("Create or update a single file in a repository. Pass the current blob SHA when updating."),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithString("path", mcp.Required(), mcp.Description("Path of the file to write")),
				mcp.WithString("message", mcp.Required(), mcp.Description("Commit message")),
				mcp.WithString("content", mcp.Required(), mcp.Description("New file content, base64 encoded")),
				mcp.WithString("branch", mcp.Description("Branch to commit to, defaults to the default branch")),
				mcp.WithString("sha", mcp.Description("Blob SHA of the file being replaced, required for updates")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				filePath, err := req.RequireString("path")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				message, err := req.RequireString("message")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				content, err := req.RequireString("content")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.CreateOrUpdateFile(ctx, owner, repo, filePath, CreateFileInput{
					Message: message,
					Content: content,
					Branch:  req.GetString("branch", ""),
					SHA:     req.GetString("sha", ""),
				})
				if err != nil {
					return mcp.NewToolResultErrorFromErr("create or update file", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("fork_repository",
				mcp.WithDescription("Fork a repository to the authenticated user's account."),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.ForkRepository(ctx, owner, repo)
				if err != nil {
					return mcp.NewToolResultErrorFromErr("fork repository", err), nil
				}
				return toolResultJSON(result)
			},
		},
	}
}

func requireOwnerRepo(req mcp.CallToolRequest) (string, string, error) {
	owner, err := req.RequireString("owner")
	if err != nil {
		return "", "", err
	}
	repo, err := req.RequireString("repo")
	if err != nil {
		return "", "", err
	}
	return owner, repo, nil
}
