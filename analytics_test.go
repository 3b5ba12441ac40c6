package main

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAgentFamily(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"", "unknown"},
		{"curl/8.4.0", "curl"},
		{"mcp-client/1.2.3 (darwin)", "mcp-client"},
		{"Mozilla/5.0 (X11; Linux)", "Mozilla"},
		{"plainagent", "plainagent"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, userAgentFamily(tt.ua), "ua=%q", tt.ua)
	}
}

func TestHourBucketIsUTC(t *testing.T) {
	loc := time.FixedZone("plus2", 2*3600)
	at := time.Date(2026, 3, 15, 1, 30, 0, 0, loc)
	assert.Equal(t, "2026-03-14T23", hourBucket(at))
}

func TestRecordToolCallRecentOrderAndCap(t *testing.T) {
	a := newAnalytics()
	for i := 0; i < maxRecentToolCalls+20; i++ {
		a.RecordToolCall(fmt.Sprintf("tool-%d", i), "10.0.0.1", "test/1")
	}

	recent := a.Recent()
	require.Len(t, recent, maxRecentToolCalls)
	assert.Equal(t, fmt.Sprintf("tool-%d", maxRecentToolCalls+19), recent[0].Tool, "newest first")
	assert.Equal(t, "tool-20", recent[len(recent)-1].Tool, "oldest surviving entry last")
}

func TestSnapshotSortsByCountThenKey(t *testing.T) {
	a := newAnalytics()
	a.RecordToolCall("beta", "1.1.1.1", "c/1")
	a.RecordToolCall("beta", "1.1.1.1", "c/1")
	a.RecordToolCall("alpha", "1.1.1.1", "c/1")
	a.RecordToolCall("gamma", "1.1.1.1", "c/1")

	snap := a.Snapshot()
	require.Len(t, snap.ByTool, 3)
	assert.Equal(t, "beta", snap.ByTool[0].Key)
	assert.Equal(t, int64(2), snap.ByTool[0].Count)
	// ties break alphabetically
	assert.Equal(t, "alpha", snap.ByTool[1].Key)
	assert.Equal(t, "gamma", snap.ByTool[2].Key)
}

func TestAnalyticsConcurrentRecording(t *testing.T) {
	a := newAnalytics()
	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ip := fmt.Sprintf("10.0.0.%d", n)
			for j := 0; j < perWorker; j++ {
				a.RecordRequest("POST", "/mcp", ip, "loadgen/0.1")
				a.RecordToolCall("hello", ip, "loadgen/0.1")
			}
		}(i)
	}
	wg.Wait()

	snap := a.Snapshot()
	assert.Equal(t, int64(workers*perWorker), snap.TotalRequests)
	assert.Equal(t, int64(workers*perWorker), snap.ToolCalls)
	require.Len(t, snap.ByIP, workers)
	assert.Len(t, a.Recent(), maxRecentToolCalls)
}

func TestRenderPrometheusContainsCounters(t *testing.T) {
	a := newAnalytics()
	a.RecordRequest("GET", "/health", "1.2.3.4", "statscheck/1")
	a.RecordToolCall("get_issue", "1.2.3.4", "statscheck/1")

	text := a.RenderPrometheus()
	assert.Contains(t, text, "octomcp_requests_total 1")
	assert.Contains(t, text, `octomcp_tool_calls_by_tool_total{tool="get_issue"} 1`)
	assert.Contains(t, text, `octomcp_requests_by_method_total{method="GET"} 1`)
	assert.NotContains(t, text, "1.2.3.4", "client addresses stay out of metrics")
}
