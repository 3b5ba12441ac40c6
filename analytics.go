package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const maxRecentToolCalls = 100

type toolCallRecord struct {
	Tool      string    `json:"tool"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	Timestamp time.Time `json:"timestamp"`
}

// Analytics accumulates request and tool-call counters in memory. All
// methods are safe for concurrent use. Counts reset on restart.
type Analytics struct {
	mu          sync.Mutex
	startedAt   time.Time
	totalHits   int64
	toolCalls   int64
	byMethod    map[string]int64
	byPath      map[string]int64
	byTool      map[string]int64
	byHour      map[string]int64
	byIP        map[string]int64
	byUserAgent map[string]int64
	recent      []toolCallRecord
}

func newAnalytics() *Analytics {
	return &Analytics{
		startedAt:   time.Now(),
		byMethod:    make(map[string]int64),
		byPath:      make(map[string]int64),
		byTool:      make(map[string]int64),
		byHour:      make(map[string]int64),
		byIP:        make(map[string]int64),
		byUserAgent: make(map[string]int64),
	}
}

func (a *Analytics) RecordRequest(method, path, ip, userAgent string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalHits++
	a.byMethod[method]++
	a.byPath[path]++
	a.byHour[hourBucket(time.Now())]++
	a.byIP[ip]++
	a.byUserAgent[userAgentFamily(userAgent)]++
}

// RecordToolCall records the attempt. It runs before the tool executes, so
// calls that go on to fail or panic are still counted.
func (a *Analytics) RecordToolCall(tool, ip, userAgent string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toolCalls++
	a.byTool[tool]++
	rec := toolCallRecord{
		Tool:      tool,
		ClientIP:  ip,
		UserAgent: userAgentFamily(userAgent),
		Timestamp: time.Now().UTC(),
	}
	a.recent = append([]toolCallRecord{rec}, a.recent...)
	if len(a.recent) > maxRecentToolCalls {
		a.recent = a.recent[:maxRecentToolCalls]
	}
}

// userAgentFamily collapses a User-Agent header to its product name, the
// part before the first slash. Headers with no slash are kept whole up to
// 50 characters.
func userAgentFamily(ua string) string {
	if ua == "" {
		return "unknown"
	}
	if idx := strings.Index(ua, "/"); idx > 0 {
		return ua[:idx]
	}
	if len(ua) > 50 {
		return ua[:50]
	}
	return ua
}

func hourBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02T15")
}

type countEntry struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type analyticsSnapshot struct {
	StartedAt     time.Time    `json:"startedAt"`
	UptimeSeconds int64        `json:"uptimeSeconds"`
	TotalRequests int64        `json:"totalRequests"`
	ToolCalls     int64        `json:"toolCalls"`
	ByMethod      []countEntry `json:"byMethod"`
	ByPath        []countEntry `json:"byPath"`
	ByTool        []countEntry `json:"byTool"`
	ByHour        []countEntry `json:"byHour"`
	ByIP          []countEntry `json:"byIp"`
	ByUserAgent   []countEntry `json:"byUserAgent"`
}

// Snapshot copies the counters into a stable, sorted view. Hourly counts
// come back in chronological order, everything else by count descending.
func (a *Analytics) Snapshot() analyticsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return analyticsSnapshot{
		StartedAt:     a.startedAt,
		UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
		TotalRequests: a.totalHits,
		ToolCalls:     a.toolCalls,
		ByMethod:      sortedByCount(a.byMethod),
		ByPath:        sortedByCount(a.byPath),
		ByTool:        sortedByCount(a.byTool),
		ByHour:        lastHours(a.byHour, 24),
		ByIP:          sortedByCount(a.byIP),
		ByUserAgent:   sortedByCount(a.byUserAgent),
	}
}

func (a *Analytics) Recent() []toolCallRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]toolCallRecord, len(a.recent))
	copy(out, a.recent)
	return out
}

func sortedByCount(m map[string]int64) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for k, v := range m {
		entries = append(entries, countEntry{Key: k, Count: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// lastHours returns up to n hour buckets in chronological order. Bucket keys
// sort lexically the same as chronologically.
func lastHours(m map[string]int64, n int) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for k, v := range m {
		entries = append(entries, countEntry{Key: k, Count: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries
}

// RenderPrometheus writes the counters in the Prometheus text exposition
// format. Label values here are low cardinality by construction except for
// client IPs, which are deliberately not exported.
func (a *Analytics) RenderPrometheus() string {
	snap := a.Snapshot()
	var b strings.Builder

	b.WriteString("# HELP octomcp_uptime_seconds Seconds since process start.\n")
	b.WriteString("# TYPE octomcp_uptime_seconds gauge\n")
	fmt.Fprintf(&b, "octomcp_uptime_seconds %d\n", snap.UptimeSeconds)

	b.WriteString("# HELP octomcp_requests_total HTTP requests received.\n")
	b.WriteString("# TYPE octomcp_requests_total counter\n")
	fmt.Fprintf(&b, "octomcp_requests_total %d\n", snap.TotalRequests)

	b.WriteString("# HELP octomcp_requests_by_method_total HTTP requests by method.\n")
	b.WriteString("# TYPE octomcp_requests_by_method_total counter\n")
	for _, e := range snap.ByMethod {
		fmt.Fprintf(&b, "octomcp_requests_by_method_total{method=%q} %d\n", e.Key, e.Count)
	}

	b.WriteString("# HELP octomcp_requests_by_path_total HTTP requests by path.\n")
	b.WriteString("# TYPE octomcp_requests_by_path_total counter\n")
	for _, e := range snap.ByPath {
		fmt.Fprintf(&b, "octomcp_requests_by_path_total{path=%q} %d\n", e.Key, e.Count)
	}

	b.WriteString("# HELP octomcp_tool_calls_total Tool invocations attempted.\n")
	b.WriteString("# TYPE octomcp_tool_calls_total counter\n")
	fmt.Fprintf(&b, "octomcp_tool_calls_total %d\n", snap.ToolCalls)

	b.WriteString("# HELP octomcp_tool_calls_by_tool_total Tool invocations by tool name.\n")
	b.WriteString("# TYPE octomcp_tool_calls_by_tool_total counter\n")
	for _, e := range snap.ByTool {
		fmt.Fprintf(&b, "octomcp_tool_calls_by_tool_total{tool=%q} %d\n", e.Key, e.Count)
	}

	b.WriteString("# HELP octomcp_requests_by_user_agent_total HTTP requests by client family.\n")
	b.WriteString("# TYPE octomcp_requests_by_user_agent_total counter\n")
	for _, e := range snap.ByUserAgent {
		fmt.Fprintf(&b, "octomcp_requests_by_user_agent_total{client=%q} %d\n", e.Key, e.Count)
	}

	return b.String()
}
