package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ===== infra helpers =====

type MiddlewareFunc func(http.Handler) http.Handler

func chainMiddleware(h http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	for _, mw := range middlewares {
		h = mw(h)
	}
	return h
}

func loggerMiddleware(prefix string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("<%s> %s %s", prefix, r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func recoverMiddleware(prefix string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Printf("<%s> panic: %v", prefix, err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func analyticsMiddleware(analytics *Analytics) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			analytics.RecordRequest(r.Method, r.URL.Path, clientIP(r), r.UserAgent())
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers proxy-set headers over the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		return strings.TrimSpace(real)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusWriter tracks whether the wrapped writer has produced any bytes of
// the response, so a panic after streaming began is not answered twice.
type statusWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.wrote = true
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wrote = true
	return sw.ResponseWriter.Write(b)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// ===== JSON-RPC helpers =====

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonrpcResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonrpcError `json:"error,omitempty"`
}

func rpcError(id any, code int, msg string) jsonrpcResponse {
	return jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &jsonrpcError{Code: code, Message: msg},
	}
}

func writeRPCError(w http.ResponseWriter, status int, id any, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rpcError(id, code, msg))
}

const (
	rpcCodeMissingCredential = -32001
	rpcCodeInternal          = -32603
)

const missingCredentialMessage = "No GitHub credential: supply ?token=, the X-GitHub-Token header, or configure a server default"

// ===== MCP dispatcher =====

type appServer struct {
	cfg       *Config
	defs      []toolDefinition
	analytics *Analytics
	cache     *sessionCache

	// defaultToken resolves the server-wide fallback credential. Nil when
	// the server runs without one.
	defaultToken func(ctx context.Context) (string, error)
}

func newAppServer(cfg *Config, defs []toolDefinition) (*appServer, error) {
	app := &appServer{
		cfg:       cfg,
		defs:      defs,
		analytics: newAnalytics(),
	}
	app.cache = newSessionCache(cfg.maxSessions(), func(token string) *session {
		return buildSession(cfg, defs, token)
	})

	switch {
	case cfg.GitHub.Token != "":
		staticToken := cfg.GitHub.Token
		app.defaultToken = func(context.Context) (string, error) { return staticToken, nil }
	case cfg.GitHub.App != nil:
		source, err := newAppTokenSource(cfg.GitHub.App, cfg.GitHub.APIBase)
		if err != nil {
			return nil, err
		}
		app.defaultToken = source.Token
	}
	return app, nil
}

// resolveRequestToken applies the credential precedence for one request.
func (app *appServer) resolveRequestToken(r *http.Request) (string, bool) {
	if token, ok := resolveToken(r.URL.Query(), r.Header, ""); ok {
		return token, true
	}
	if app.defaultToken == nil {
		return "", false
	}
	token, err := app.defaultToken(r.Context())
	if err != nil {
		log.Printf("<mcp> default credential unavailable: %v", err)
		return "", false
	}
	return token, token != ""
}

// peekToolCall extracts the tool name from a tools/call body without
// consuming it for the downstream handler.
func peekToolCall(body []byte) (string, bool) {
	var req jsonrpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", false
	}
	if req.Method != "tools/call" {
		return "", false
	}
	var params struct {
		Name string `json:"name"`
	}
	if len(req.Params) > 0 {
		_ = json.Unmarshal(req.Params, &params)
	}
	if params.Name == "" {
		return "", false
	}
	return params.Name, true
}

func (app *appServer) handleMCP(w http.ResponseWriter, r *http.Request) {
	token, ok := app.resolveRequestToken(r)
	if !ok {
		writeRPCError(w, http.StatusUnauthorized, nil, rpcCodeMissingCredential, missingCredentialMessage)
		return
	}

	traceID := uuid.NewString()

	if r.Method == http.MethodPost {
		body, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			writeRPCError(w, http.StatusBadRequest, nil, -32700, "Failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		// attempts count even when the call later fails
		if tool, isCall := peekToolCall(body); isCall {
			app.analytics.RecordToolCall(tool, clientIP(r), r.UserAgent())
			log.Printf("<mcp> trace=%s tools/call tool=%s", traceID, tool)
		}
	}

	sess := app.cache.getOrCreate(token)

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if err := recover(); err != nil {
			log.Printf("<mcp> trace=%s panic: %v", traceID, err)
			if !sw.wrote {
				writeRPCError(w, http.StatusInternalServerError, nil, rpcCodeInternal, "Internal error")
			}
		}
	}()
	sess.handler.ServeHTTP(sw, r)
}

// ===== operational endpoints =====

func (app *appServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"name":     app.cfg.Server.Name,
		"version":  app.cfg.Server.Version,
		"sessions": app.cache.len(),
	})
}

func (app *appServer) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(app.analytics.Snapshot())
}

func (app *appServer) handleRecent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"toolCalls": app.analytics.Recent(),
	})
}

func (app *appServer) handleTools(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tools": toolCatalog(app.defs),
	})
}

func (app *appServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = io.WriteString(w, app.analytics.RenderPrometheus())
}

func (app *appServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, dashboardHTML)
}

// newMux wires all routes. Split out of startHTTPServer so tests can drive
// the full handler without a listener.
func (app *appServer) newMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", app.handleMCP)
	mux.HandleFunc("/health", app.handleHealth)
	mux.HandleFunc("/analytics", app.handleAnalytics)
	mux.HandleFunc("/analytics/recent", app.handleRecent)
	mux.HandleFunc("/tools", app.handleTools)
	mux.HandleFunc("/metrics", app.handleMetrics)
	mux.HandleFunc("/dashboard", app.handleDashboard)

	mws := []MiddlewareFunc{recoverMiddleware("http"), analyticsMiddleware(app.analytics)}
	if app.cfg.Options.LogEnabled.OrElse(true) {
		mws = append(mws, loggerMiddleware("http"))
	}
	return chainMiddleware(mux, mws...)
}

// ===== start & shutdown =====

func startHTTPServer(cfg *Config, defs []toolDefinition) error {
	app, err := newAppServer(cfg, defs)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: app.newMux(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var eg errgroup.Group
	eg.Go(func() error {
		log.Printf("%s %s listening on %s", cfg.Server.Name, cfg.Server.Version, cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Println("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
