package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type githubClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

func newGitHubClient(token, baseURL string) *githubClient {
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	return &githubClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		token:      token,
		userAgent:  defaultServerName + "/" + defaultVersion,
	}
}

func (c *githubClient) hasToken() bool {
	return c.token != ""
}

type apiError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
}

// do issues one GitHub REST call, retrying on 429 and 5xx with exponential
// backoff and honoring Retry-After. wantStatus is the status that counts as
// success; the response body is decoded into out when out is non-nil.
func (c *githubClient) do(ctx context.Context, operation, method, path string, query url.Values, body any, wantStatus int, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", operation, err)
		}
		payload = encoded
	}

	const maxAttempts = 3
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
		if err != nil {
			return err
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("User-Agent", c.userAgent)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts && isRetryableError(err) {
				if !sleepWithBackoff(ctx, attempt, 0) {
					return ctx.Err()
				}
				continue
			}
			return err
		}

		if resp.StatusCode == wantStatus {
			defer resp.Body.Close()
			if out == nil {
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode %s response: %w", operation, err)
			}
			return nil
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%s HTTP %d and read body failed: %w", operation, resp.StatusCode, readErr)
		} else {
			lastErr = &apiError{Operation: operation, StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		retryAfter := retryAfterDuration(resp)
		if attempt < maxAttempts && isRetryableStatus(resp.StatusCode) {
			if !sleepWithBackoff(ctx, attempt, retryAfter) {
				return ctx.Err()
			}
			continue
		}
		return lastErr
	}
	return lastErr
}

func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func retryAfterDuration(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepWithBackoff(ctx context.Context, attempt int, retryAfter time.Duration) bool {
	base := 250 * time.Millisecond
	max := 5 * time.Second
	backoff := base * time.Duration(1<<(attempt-1))
	if backoff > max {
		backoff = max
	}
	jitter := time.Duration(rand.Intn(200)) * time.Millisecond
	wait := backoff + jitter
	if retryAfter > wait {
		wait = retryAfter
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func listQuery(page, perPage int) url.Values {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	return query
}

// ----- repositories -----

type User struct {
	Login   string `json:"login"`
	ID      int64  `json:"id,omitempty"`
	Type    string `json:"type,omitempty"`
	HTMLURL string `json:"html_url,omitempty"`
}

type Repository struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	Owner           User   `json:"owner"`
	Private         bool   `json:"private"`
	Fork            bool   `json:"fork"`
	Description     string `json:"description,omitempty"`
	HTMLURL         string `json:"html_url"`
	DefaultBranch   string `json:"default_branch,omitempty"`
	Language        string `json:"language,omitempty"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
}

type RepositorySearchResult struct {
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []Repository `json:"items"`
}

type Branch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
	Commit    struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type Commit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Author  *User  `json:"author,omitempty"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

type FileContent struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Type     string `json:"type"`
	Encoding string `json:"encoding,omitempty"`
	Content  string `json:"content,omitempty"`
	HTMLURL  string `json:"html_url"`
}

type CreateFileInput struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type FileCommitResult struct {
	Content *FileContent `json:"content"`
	Commit  Commit       `json:"commit"`
}

func (c *githubClient) SearchRepositories(ctx context.Context, q string, page, perPage int) (*RepositorySearchResult, error) {
	query := listQuery(page, perPage)
	query.Set("q", q)
	var result RepositorySearchResult
	if err := c.do(ctx, "search repositories", http.MethodGet, "/search/repositories", query, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	var result Repository
	path := fmt.Sprintf("/repos/%s/%s", owner, repo)
	if err := c.do(ctx, "get repository", http.MethodGet, path, nil, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) ListBranches(ctx context.Context, owner, repo string, page, perPage int) ([]Branch, error) {
	var result []Branch
	path := fmt.Sprintf("/repos/%s/%s/branches", owner, repo)
	if err := c.do(ctx, "list branches", http.MethodGet, path, listQuery(page, perPage), nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *githubClient) ListCommits(ctx context.Context, owner, repo, sha string, page, perPage int) ([]Commit, error) {
	query := listQuery(page, perPage)
	if sha != "" {
		query.Set("sha", sha)
	}
	var result []Commit
	path := fmt.Sprintf("/repos/%s/%s/commits", owner, repo)
	if err := c.do(ctx, "list commits", http.MethodGet, path, query, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *githubClient) GetFileContents(ctx context.Context, owner, repo, filePath, ref string) (*FileContent, error) {
	query := url.Values{}
	if ref != "" {
		query.Set("ref", ref)
	}
	var result FileContent
	path := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, filePath)
	if err := c.do(ctx, "get file contents", http.MethodGet, path, query, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) CreateOrUpdateFile(ctx context.Context, owner, repo, filePath string, in CreateFileInput) (*FileCommitResult, error) {
	var result FileCommitResult
	path := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, filePath)
	// 201 on create, 200 on update; retry the decode on the alternate status.
	err := c.do(ctx, "create or update file", http.MethodPut, path, nil, in, http.StatusCreated, &result)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusOK {
		if decodeErr := json.Unmarshal([]byte(apiErr.Body), &result); decodeErr == nil {
			return &result, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) ForkRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	var result Repository
	path := fmt.Sprintf("/repos/%s/%s/forks", owner, repo)
	if err := c.do(ctx, "fork repository", http.MethodPost, path, nil, nil, http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ----- issues -----

type Label struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Body      string    `json:"body,omitempty"`
	User      User      `json:"user"`
	Labels    []Label   `json:"labels,omitempty"`
	Comments  int       `json:"comments"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type IssueSearchResult struct {
	TotalCount        int     `json:"total_count"`
	IncompleteResults bool    `json:"incomplete_results"`
	Items             []Issue `json:"items"`
}

type IssueListOptions struct {
	State     string
	Labels    string
	Sort      string
	Direction string
	Page      int
	PerPage   int
}

type CreateIssueInput struct {
	Title     string   `json:"title"`
	Body      string   `json:"body,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
}

type UpdateIssueInput struct {
	Title  *string   `json:"title,omitempty"`
	Body   *string   `json:"body,omitempty"`
	State  *string   `json:"state,omitempty"`
	Labels *[]string `json:"labels,omitempty"`
}

type IssueComment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	User      User      `json:"user"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *githubClient) ListIssues(ctx context.Context, owner, repo string, opts IssueListOptions) ([]Issue, error) {
	query := listQuery(opts.Page, opts.PerPage)
	if opts.State != "" {
		query.Set("state", opts.State)
	}
	if opts.Labels != "" {
		query.Set("labels", opts.Labels)
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}
	if opts.Direction != "" {
		query.Set("direction", opts.Direction)
	}
	var result []Issue
	path := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)
	if err := c.do(ctx, "list issues", http.MethodGet, path, query, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *githubClient) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	var result Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.do(ctx, "get issue", http.MethodGet, path, nil, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) CreateIssue(ctx context.Context, owner, repo string, in CreateIssueInput) (*Issue, error) {
	var result Issue
	path := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)
	if err := c.do(ctx, "create issue", http.MethodPost, path, nil, in, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) UpdateIssue(ctx context.Context, owner, repo string, number int, in UpdateIssueInput) (*Issue, error) {
	var result Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.do(ctx, "update issue", http.MethodPatch, path, nil, in, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) AddIssueComment(ctx context.Context, owner, repo string, number int, body string) (*IssueComment, error) {
	var result IssueComment
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
	payload := map[string]string{"body": body}
	if err := c.do(ctx, "add issue comment", http.MethodPost, path, nil, payload, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) ListIssueComments(ctx context.Context, owner, repo string, number, page, perPage int) ([]IssueComment, error) {
	var result []IssueComment
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
	if err := c.do(ctx, "list issue comments", http.MethodGet, path, listQuery(page, perPage), nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ----- pull requests -----

type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Body      string    `json:"body,omitempty"`
	Draft     bool      `json:"draft"`
	Merged    bool      `json:"merged"`
	Mergeable *bool     `json:"mergeable,omitempty"`
	User      User      `json:"user"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	Base      struct {
		Ref string `json:"ref"`
	} `json:"base"`
	Head struct {
		Ref string `json:"ref"`
	} `json:"head"`
}

type PullRequestFile struct {
	Filename         string `json:"filename"`
	Status           string `json:"status"`
	Additions        int    `json:"additions"`
	Deletions        int    `json:"deletions"`
	Changes          int    `json:"changes"`
	BlobURL          string `json:"blob_url,omitempty"`
	RawURL           string `json:"raw_url,omitempty"`
	Patch            string `json:"patch,omitempty"`
	PreviousFilename string `json:"previous_filename,omitempty"`
}

type CreatePullRequestInput struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body,omitempty"`
	Draft bool   `json:"draft,omitempty"`
}

type MergeInput struct {
	CommitTitle   string `json:"commit_title,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
	MergeMethod   string `json:"merge_method,omitempty"`
}

type MergeResult struct {
	SHA     string `json:"sha"`
	Merged  bool   `json:"merged"`
	Message string `json:"message"`
}

func (c *githubClient) ListPullRequests(ctx context.Context, owner, repo, state string, page, perPage int) ([]PullRequest, error) {
	query := listQuery(page, perPage)
	if state != "" {
		query.Set("state", state)
	}
	var result []PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)
	if err := c.do(ctx, "list pull requests", http.MethodGet, path, query, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *githubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var result PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	if err := c.do(ctx, "get pull request", http.MethodGet, path, nil, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) CreatePullRequest(ctx context.Context, owner, repo string, in CreatePullRequestInput) (*PullRequest, error) {
	var result PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)
	if err := c.do(ctx, "create pull request", http.MethodPost, path, nil, in, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]PullRequestFile, error) {
	files := make([]PullRequestFile, 0)
	for page := 1; page <= 10; page++ {
		query := listQuery(page, 100)
		var pageFiles []PullRequestFile
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files", owner, repo, number)
		if err := c.do(ctx, "list pull request files", http.MethodGet, path, query, nil, http.StatusOK, &pageFiles); err != nil {
			return nil, err
		}
		files = append(files, pageFiles...)
		if len(pageFiles) < 100 {
			break
		}
	}
	return files, nil
}

func (c *githubClient) MergePullRequest(ctx context.Context, owner, repo string, number int, in MergeInput) (*MergeResult, error) {
	var result MergeResult
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/merge", owner, repo, number)
	if err := c.do(ctx, "merge pull request", http.MethodPut, path, nil, in, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ----- search -----

type CodeResult struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	SHA        string `json:"sha"`
	HTMLURL    string `json:"html_url"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

type CodeSearchResult struct {
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []CodeResult `json:"items"`
}

type UserSearchResult struct {
	TotalCount        int    `json:"total_count"`
	IncompleteResults bool   `json:"incomplete_results"`
	Items             []User `json:"items"`
}

func (c *githubClient) SearchCode(ctx context.Context, q string, page, perPage int) (*CodeSearchResult, error) {
	query := listQuery(page, perPage)
	query.Set("q", q)
	var result CodeSearchResult
	if err := c.do(ctx, "search code", http.MethodGet, "/search/code", query, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) SearchIssues(ctx context.Context, q string, page, perPage int) (*IssueSearchResult, error) {
	query := listQuery(page, perPage)
	query.Set("q", q)
	var result IssueSearchResult
	if err := c.do(ctx, "search issues", http.MethodGet, "/search/issues", query, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *githubClient) SearchUsers(ctx context.Context, q string, page, perPage int) (*UserSearchResult, error) {
	query := listQuery(page, perPage)
	query.Set("q", q)
	var result UserSearchResult
	if err := c.do(ctx, "search users", http.MethodGet, "/search/users", query, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
