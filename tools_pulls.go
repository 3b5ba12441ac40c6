package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func pullToolDefinitions() []toolDefinition {
	return []toolDefinition{
		{
			tool: mcp.NewTool("list_pull_requests",
				mcp.WithDescription("List pull requests in a repository."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithString("state", mcp.Description("open, closed, or all (default open)")),
				mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
				mcp.WithNumber("per_page", mcp.Description("Results per page, max 100")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.ListPullRequests(ctx, owner, repo, req.GetString("state", ""), req.GetInt("page", 0), req.GetInt("per_page", 0))
				if err != nil {
					return mcp.NewToolResultErrorFromErr("list pull requests", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("get_pull_request",
				mcp.WithDescription("Get a single pull request by number."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithNumber("number", mcp.Required(), mcp.Description("Pull request number")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				number, err := req.RequireInt("number")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.GetPullRequest(ctx, owner, repo, number)
				if err != nil {
					return mcp.NewToolResultErrorFromErr("get pull request", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("create_pull_request",
				mcp.WithDescription("Open a pull request from head into base."),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithString("title", mcp.Required(), mcp.Description("Pull request title")),
				mcp.WithString("head", mcp.Required(), mcp.Description("Branch with the changes, use 'user:branch' for cross-fork")),
				mcp.WithString("base", mcp.Required(), mcp.Description("Branch to merge into")),
				mcp.WithString("body", mcp.Description("Pull request body in Markdown")),
				mcp.WithBoolean("draft", mcp.Description("Open as a draft pull request")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				title, err := req.RequireString("title")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				head, err := req.RequireString("head")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				base, err := req.RequireString("base")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.CreatePullRequest(ctx, owner, repo, CreatePullRequestInput{
					Title: title,
					Head:  head,
					Base:  base,
					Body:  req.GetString("body", ""),
					Draft: req.GetBool("draft", false),
				})
				if err != nil {
					return mcp.NewToolResultErrorFromErr("create pull request", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("list_pull_request_files",
				mcp.WithDescription("List the files changed by a pull request, including per-file additions and deletions."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithNumber("number", mcp.Required(), mcp.Description("Pull request number")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				number, err := req.RequireInt("number")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.ListPullRequestFiles(ctx, owner, repo, number)
				if err != nil {
					return mcp.NewToolResultErrorFromErr("list pull request files", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("merge_pull_request",
				mcp.WithDescription("Merge a pull request. Fails if the pull request is not mergeable."),
				mcp.WithDestructiveHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithNumber("number", mcp.Required(), mcp.Description("Pull request number")),
				mcp.WithString("merge_method", mcp.Description("merge, squash, or rebase (default merge)")),
				mcp.WithString("commit_title", mcp.Description("Title for the merge commit")),
				mcp.WithString("commit_message", mcp.Description("Extra detail for the merge commit")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				number, err := req.RequireInt("number")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.MergePullRequest(ctx, owner, repo, number, MergeInput{
					CommitTitle:   req.GetString("commit_title", ""),
					CommitMessage: req.GetString("commit_message", ""),
					MergeMethod:   req.GetString("merge_method", ""),
				})
				if err != nil {
					return mcp.NewToolResultErrorFromErr("merge pull request", err), nil
				}
				return toolResultJSON(result)
			},
		},
	}
}
