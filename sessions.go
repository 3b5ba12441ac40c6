package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/singleflight"
)

// session is a fully wired MCP server bound to one credential. The transport
// is stateless, so one session safely serves any number of concurrent
// requests carrying the same token.
type session struct {
	id       string
	gh       *githubClient
	server   *server.MCPServer
	handler  http.Handler
	lastUsed time.Time
}

type sessionCache struct {
	mu         sync.RWMutex
	sessions   map[string]*session
	group      singleflight.Group
	maxEntries int
	build      func(token string) *session
}

func newSessionCache(maxEntries int, build func(token string) *session) *sessionCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxSessions
	}
	return &sessionCache{
		sessions:   make(map[string]*session),
		maxEntries: maxEntries,
		build:      build,
	}
}

// getOrCreate returns the session for token, constructing it at most once
// even under concurrent first requests for the same credential.
func (c *sessionCache) getOrCreate(token string) *session {
	c.mu.RLock()
	s, ok := c.sessions[token]
	c.mu.RUnlock()
	if ok {
		c.touch(s)
		return s
	}

	v, _, _ := c.group.Do(token, func() (any, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.sessions[token]; ok {
			return existing, nil
		}
		created := c.build(token)
		created.lastUsed = time.Now()
		if len(c.sessions) >= c.maxEntries {
			c.evictOldestLocked()
		}
		c.sessions[token] = created
		return created, nil
	})
	s = v.(*session)
	c.touch(s)
	return s
}

func (c *sessionCache) touch(s *session) {
	c.mu.Lock()
	s.lastUsed = time.Now()
	c.mu.Unlock()
}

// evictOldestLocked drops the least recently used session. Callers hold mu.
func (c *sessionCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, s := range c.sessions {
		if first || s.lastUsed.Before(oldest) {
			oldestKey = key
			oldest = s.lastUsed
			first = false
		}
	}
	if !first {
		delete(c.sessions, oldestKey)
	}
}

func (c *sessionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// buildSession constructs the MCP server for one credential and binds the
// shared tool table to a client carrying that credential.
func buildSession(cfg *Config, defs []toolDefinition, token string) *session {
	gh := newGitHubClient(token, cfg.GitHub.APIBase)
	s := server.NewMCPServer(cfg.Server.Name, cfg.Server.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	bindTools(s, defs, gh)
	handler := server.NewStreamableHTTPServer(s, server.WithStateLess(true))
	return &session{
		id:      uuid.NewString(),
		gh:      gh,
		server:  s,
		handler: handler,
	}
}
