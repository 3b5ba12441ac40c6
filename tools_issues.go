package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func issueToolDefinitions() []toolDefinition {
	return []toolDefinition{
		{
			tool: mcp.NewTool("list_issues",
				mcp.WithDescription("List issues in a repository. Pull requests are included by the GitHub API; filter on the absence of pull_request if needed."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithString("state", mcp.Description("open, closed, or all (default open)")),
				mcp.WithString("labels", mcp.Description("Comma-separated label names")),
				mcp.WithString("sort", mcp.Description("created, updated, or comments")),
				mcp.WithString("direction", mcp.Description("asc or desc")),
				mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
				mcp.WithNumber("per_page", mcp.Description("Results per page, max 100")),
			),
			handler: func(ctx context.Context, req mcp.CallToolRequest, gh *githubClient) (*mcp.CallToolResult, error) {
				owner, repo, err := requireOwnerRepo(req)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.ListIssues(ctx, owner, repo, IssueListOptions{
					State:     req.GetString("state", ""),
					Labels:    req.GetString("labels", ""),
					Sort:      req.GetString("sort", ""),
					Direction: req.GetString("direction", ""),
					Page:      req.GetInt("page", 0),
					PerPage:   req.GetInt("per_page", 0),
				})
				if err != nil {
					return mcp.NewToolResultErrorFromErr("list issues", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("get_issue",
				mcp.WithDescription("Get a single issue by number."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithNumber("number", mcp.Required(), mcp.Description("Issue number")),
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
				result, err := gh.GetIssue(ctx, owner, repo, number)
				if err != nil {
					return mcp.NewToolResultErrorFromErr("get issue", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("create_issue",
				mcp.WithDescription("Open a new issue in a repository."),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithString("title", mcp.Required(), mcp.Description("Issue title")),
				mcp.WithString("body", mcp.Description("Issue body in Markdown")),
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
				result, err := gh.CreateIssue(ctx, owner, repo, CreateIssueInput{
					Title: title,
					Body:  req.GetString("body", ""),
				})
				if err != nil {
					return mcp.NewToolResultErrorFromErr("create issue", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("update_issue",
				mcp.WithDescription("Update an issue's title, body, or state. Only the fields provided are changed."),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithNumber("number", mcp.Required(), mcp.Description("Issue number")),
				mcp.WithString("title", mcp.Description("New title")),
				mcp.WithString("body", mcp.Description("New body")),
				mcp.WithString("state", mcp.Description("open or closed")),
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
				var in UpdateIssueInput
				if v := req.GetString("title", ""); v != "" {
					in.Title = &v
				}
				if v := req.GetString("body", ""); v != "" {
					in.Body = &v
				}
				if v := req.GetString("state", ""); v != "" {
					in.State = &v
				}
				result, err := gh.UpdateIssue(ctx, owner, repo, number, in)
				if err != nil {
					return mcp.NewToolResultErrorFromErr("update issue", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("add_issue_comment",
				mcp.WithDescription("Add a comment to an issue or pull request."),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithNumber("number", mcp.Required(), mcp.Description("Issue or pull request number")),
				mcp.WithString("body", mcp.Required(), mcp.Description("Comment body in Markdown")),
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
				body, err := req.RequireString("body")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				result, err := gh.AddIssueComment(ctx, owner, repo, number, body)
				if err != nil {
					return mcp.NewToolResultErrorFromErr("add issue comment", err), nil
				}
				return toolResultJSON(result)
			},
		},
		{
			tool: mcp.NewTool("list_issue_comments",
				mcp.WithDescription("List comments on an issue or pull request."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
				mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithNumber("number", mcp.Required(), mcp.Description("Issue or pull request number")),
				mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
				mcp.WithNumber("per_page", mcp.Description("Results per page, max 100")),
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
				result, err := gh.ListIssueComments(ctx, owner, repo, number, req.GetInt("page", 0), req.GetInt("per_page", 0))
				if err != nil {
					return mcp.NewToolResultErrorFromErr("list issue comments", err), nil
				}
				return toolResultJSON(result)
			},
		},
	}
}
