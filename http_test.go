package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg *Config) *httptest.Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	app, err := newAppServer(cfg, allToolDefinitions())
	require.NoError(t, err)
	ts := httptest.NewServer(app.newMux())
	t.Cleanup(ts.Close)
	return ts
}

func postRPC(t *testing.T, ts *httptest.Server, target string, payload map[string]any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeRPC(t *testing.T, resp *http.Response) jsonrpcResponse {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// streamable responses may arrive as a single SSE data frame
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, "event:") || strings.HasPrefix(text, "data:") {
		for _, line := range strings.Split(text, "\n") {
			if strings.HasPrefix(line, "data:") {
				text = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				break
			}
		}
	}

	var rpc jsonrpcResponse
	require.NoError(t, json.Unmarshal([]byte(text), &rpc), "body: %s", text)
	return rpc
}

func toolsCallPayload(id any, tool string, args map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      tool,
			"arguments": args,
		},
	}
}

func TestMCPRejectsMissingCredential(t *testing.T) {
	ts := newTestApp(t, nil)

	resp := postRPC(t, ts, "/mcp", toolsCallPayload(1, "hello", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	rpc := decodeRPC(t, resp)
	require.NotNil(t, rpc.Error)
	assert.Equal(t, rpcCodeMissingCredential, rpc.Error.Code)
	assert.Nil(t, rpc.ID, "credential failures carry a null id")
	assert.Contains(t, rpc.Error.Message, "X-GitHub-Token")
	assert.Contains(t, rpc.Error.Message, "token=")
}

func TestMCPRejectsMissingCredentialOnDelete(t *testing.T) {
	ts := newTestApp(t, nil)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/mcp", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMCPAcceptsHeaderCredential(t *testing.T) {
	ts := newTestApp(t, nil)

	body, _ := json.Marshal(toolsCallPayload(7, "hello", nil))
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("X-GitHub-Token", "header-token")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)

	rpc := decodeRPC(t, resp)
	require.Nil(t, rpc.Error, "hello should succeed with a header credential")
}

func TestMCPUsesServerDefaultCredential(t *testing.T) {
	cfg := testConfig()
	cfg.GitHub.Token = "env-default-token"
	ts := newTestApp(t, cfg)

	resp := postRPC(t, ts, "/mcp", toolsCallPayload(2, "hello", nil))
	rpc := decodeRPC(t, resp)
	require.Nil(t, rpc.Error)

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	raw, err := json.Marshal(rpc.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	require.NotEmpty(t, result.Content)

	var payload struct {
		HasToken bool `json:"hasToken"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.True(t, payload.HasToken)
}

func TestMCPToolsListIncludesHello(t *testing.T) {
	ts := newTestApp(t, nil)

	resp := postRPC(t, ts, "/mcp?token=query-token", map[string]any{
		"jsonrpc": "2.0",
		"id":      3,
		"method":  "tools/list",
	})
	rpc := decodeRPC(t, resp)
	require.Nil(t, rpc.Error)

	raw, err := json.Marshal(rpc.Result)
	require.NoError(t, err)
	var result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))

	names := make(map[string]struct{}, len(result.Tools))
	for _, tool := range result.Tools {
		names[tool.Name] = struct{}{}
	}
	_, hasHello := names["hello"]
	assert.True(t, hasHello)
	_, hasSearch := names["search_repositories"]
	assert.True(t, hasSearch)
}

func TestMCPUnknownToolIsProtocolError(t *testing.T) {
	ts := newTestApp(t, nil)

	resp := postRPC(t, ts, "/mcp?token=query-token", toolsCallPayload(4, "no_such_tool", nil))
	assert.Less(t, resp.StatusCode, 500, "unknown tool is not a server failure")
	rpc := decodeRPC(t, resp)
	require.NotNil(t, rpc.Error)
}

func TestSessionsAreSharedPerCredential(t *testing.T) {
	cfg := testConfig()
	app, err := newAppServer(cfg, allToolDefinitions())
	require.NoError(t, err)
	ts := httptest.NewServer(app.newMux())
	t.Cleanup(ts.Close)

	for i := 0; i < 3; i++ {
		resp := postRPC(t, ts, "/mcp?token=alpha", toolsCallPayload(i, "hello", nil))
		resp.Body.Close()
	}
	assert.Equal(t, 1, app.cache.len())

	resp := postRPC(t, ts, "/mcp?token=beta", toolsCallPayload(9, "hello", nil))
	resp.Body.Close()
	assert.Equal(t, 2, app.cache.len())
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestApp(t, nil)

	for i := 0; i < 2; i++ {
		resp, err := ts.Client().Get(ts.URL + "/health")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, defaultServerName, body["name"])
	}
}

func TestAnalyticsEndpointCountsTraffic(t *testing.T) {
	ts := newTestApp(t, nil)

	resp := postRPC(t, ts, "/mcp?token=tok", toolsCallPayload(1, "hello", nil))
	resp.Body.Close()
	httpResp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	httpResp.Body.Close()

	analyticsResp, err := ts.Client().Get(ts.URL + "/analytics")
	require.NoError(t, err)
	defer analyticsResp.Body.Close()

	var snap analyticsSnapshot
	require.NoError(t, json.NewDecoder(analyticsResp.Body).Decode(&snap))
	assert.GreaterOrEqual(t, snap.TotalRequests, int64(2))
	assert.Equal(t, int64(1), snap.ToolCalls)
	require.NotEmpty(t, snap.ByTool)
	assert.Equal(t, "hello", snap.ByTool[0].Key)
}

func TestRecentEndpointListsToolCalls(t *testing.T) {
	ts := newTestApp(t, nil)

	for i := 0; i < 3; i++ {
		resp := postRPC(t, ts, "/mcp?token=tok", toolsCallPayload(i, "hello", nil))
		resp.Body.Close()
	}

	resp, err := ts.Client().Get(ts.URL + "/analytics/recent")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		ToolCalls []toolCallRecord `json:"toolCalls"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.ToolCalls, 3)
	assert.Equal(t, "hello", body.ToolCalls[0].Tool)
}

func TestMetricsEndpointRendersPrometheusText(t *testing.T) {
	ts := newTestApp(t, nil)

	resp := postRPC(t, ts, "/mcp?token=tok", toolsCallPayload(1, "hello", nil))
	resp.Body.Close()

	metricsResp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Contains(t, metricsResp.Header.Get("Content-Type"), "text/plain")

	data, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "octomcp_requests_total")
	assert.Contains(t, text, `octomcp_tool_calls_by_tool_total{tool="hello"} 1`)
}

func TestToolsEndpointListsCatalog(t *testing.T) {
	ts := newTestApp(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Tools []struct {
			Name        string         `json:"name"`
			Annotations map[string]any `json:"annotations"`
		} `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Tools)

	found := false
	for _, tool := range body.Tools {
		if tool.Name == "get_repository" {
			found = true
			assert.Equal(t, true, tool.Annotations["readOnlyHint"])
		}
	}
	assert.True(t, found)
}

func TestDashboardServesHTML(t *testing.T) {
	ts := newTestApp(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "octomcp analytics")
}

// appWithSessionHandler swaps in a fake session transport, bypassing the
// real MCP server so transport-level failure modes can be driven directly.
func appWithSessionHandler(t *testing.T, h http.Handler) *appServer {
	t.Helper()
	app, err := newAppServer(testConfig(), allToolDefinitions())
	require.NoError(t, err)
	app.cache = newSessionCache(0, func(token string) *session {
		return &session{id: token, handler: h}
	})
	return app
}

func TestMCPPanicBeforeWriteBecomesInternalError(t *testing.T) {
	app := appWithSessionHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("session transport blew up")
	}))

	body, _ := json.Marshal(toolsCallPayload(1, "hello", nil))
	req := httptest.NewRequest(http.MethodPost, "/mcp?token=tok", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.handleMCP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var rpc jsonrpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rpc))
	require.NotNil(t, rpc.Error)
	assert.Equal(t, rpcCodeInternal, rpc.Error.Code)
	assert.Nil(t, rpc.ID)
}

func TestMCPPanicAfterWriteIsNotAnsweredTwice(t *testing.T) {
	app := appWithSessionHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		panic("mid-stream failure")
	}))

	body, _ := json.Marshal(toolsCallPayload(2, "hello", nil))
	req := httptest.NewRequest(http.MethodPost, "/mcp?token=tok", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.handleMCP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "already-committed status stands")
	assert.Equal(t, "partial", rec.Body.String(), "no error envelope appended after bytes went out")
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.10:51234"
	assert.Equal(t, "192.0.2.10", clientIP(req))

	req.Header.Set("X-Real-Ip", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestChainMiddlewareOrder(t *testing.T) {
	var calls []string
	mk := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := chainMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "handler")
	}), mk("inner"), mk("outer"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, calls)
}

func TestPeekToolCall(t *testing.T) {
	body := []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":%q}}`, "get_issue"))
	name, ok := peekToolCall(body)
	assert.True(t, ok)
	assert.Equal(t, "get_issue", name)

	_, ok = peekToolCall([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	assert.False(t, ok)

	_, ok = peekToolCall([]byte(`not json`))
	assert.False(t, ok)
}
