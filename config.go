package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/TBXark/optional-go"
	"github.com/go-sphere/confstore"
	"github.com/go-sphere/confstore/codec"
	"github.com/go-sphere/confstore/provider"
	providerfile "github.com/go-sphere/confstore/provider/file"
	providerhttp "github.com/go-sphere/confstore/provider/http"
)

const (
	defaultServerName = "octomcp"
	defaultVersion    = "1.0.0"
	defaultAddr       = ":8080"
	defaultAPIBase    = "https://api.github.com"

	defaultMaxSessions = 256
)

type Config struct {
	Server  *ServerConfig  `json:"server,omitempty"`
	GitHub  *GitHubConfig  `json:"github,omitempty"`
	Options *OptionsConfig `json:"options,omitempty"`
}

type ServerConfig struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Addr    string `json:"addr,omitempty"`
}

type GitHubConfig struct {
	// Token is the server-default credential, used when a request supplies
	// neither the `token` query parameter nor the X-GitHub-Token header.
	Token   string     `json:"token,omitempty"`
	APIBase string     `json:"apiBase,omitempty"`
	App     *AppConfig `json:"app,omitempty"`
}

// AppConfig configures GitHub App authentication as an alternative source
// of the server-default credential. Installation tokens are minted lazily.
type AppConfig struct {
	AppID          int64  `json:"appId"`
	InstallationID int64  `json:"installationId,omitempty"`
	PrivateKeyPath string `json:"privateKeyPath"`
}

type OptionsConfig struct {
	LogEnabled  optional.Field[bool] `json:"logEnabled,omitempty"`
	MaxSessions optional.Field[int]  `json:"maxSessions,omitempty"`
	// ToolOverrides points at a JSON file that disables or re-describes
	// individual tools without a rebuild.
	ToolOverrides string `json:"toolOverrides,omitempty"`
}

// configProvider picks the confstore backend for a path: remote for
// http(s) URLs, local file otherwise.
func configProvider(path string) provider.Provider {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return providerhttp.New(path)
	}
	return providerfile.New(path)
}

func loadConfig(path string) (*Config, error) {
	config := &Config{}
	if strings.TrimSpace(path) != "" {
		loaded, err := confstore.Load[Config](configProvider(path), codec.JsonCodec())
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		config = loaded
	}
	applyEnv(config)
	applyDefaults(config)
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(config *Config) {
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.GitHub == nil {
		config.GitHub = &GitHubConfig{}
	}

	host := strings.TrimSpace(os.Getenv("BIND_ADDRESS"))
	if port := envInt("PORT", 0); port > 0 {
		config.Server.Addr = fmt.Sprintf("%s:%d", host, port)
	} else if host != "" && config.Server.Addr == "" {
		config.Server.Addr = host + ":8080"
	}

	if token := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); token != "" {
		config.GitHub.Token = token
	}
	if base := strings.TrimSpace(os.Getenv("GITHUB_API_BASE")); base != "" {
		config.GitHub.APIBase = base
	}

	if appID := envInt64("GITHUB_APP_ID", 0); appID != 0 {
		if config.GitHub.App == nil {
			config.GitHub.App = &AppConfig{}
		}
		config.GitHub.App.AppID = appID
	}
	if config.GitHub.App != nil {
		if installID := envInt64("GITHUB_APP_INSTALLATION_ID", 0); installID != 0 {
			config.GitHub.App.InstallationID = installID
		}
		if keyPath := strings.TrimSpace(os.Getenv("GITHUB_APP_PRIVATE_KEY")); keyPath != "" {
			config.GitHub.App.PrivateKeyPath = keyPath
		}
	}
}

func applyDefaults(config *Config) {
	if config.Server.Name == "" {
		config.Server.Name = defaultServerName
	}
	if config.Server.Version == "" {
		config.Server.Version = defaultVersion
	}
	if config.Server.Addr == "" {
		config.Server.Addr = defaultAddr
	}
	if config.GitHub.APIBase == "" {
		config.GitHub.APIBase = defaultAPIBase
	}
	if config.Options == nil {
		config.Options = &OptionsConfig{}
	}
	if config.Options.ToolOverrides == "" {
		if v := strings.TrimSpace(os.Getenv("OCTOMCP_TOOL_OVERRIDES")); v != "" {
			config.Options.ToolOverrides = v
		}
	}
}

func validateConfig(config *Config) error {
	if app := config.GitHub.App; app != nil {
		if app.AppID == 0 {
			return errors.New("github app auth requires an app id")
		}
		if strings.TrimSpace(app.PrivateKeyPath) == "" {
			return errors.New("github app auth requires a private key path")
		}
	}
	if max := config.Options.MaxSessions.OrElse(defaultMaxSessions); max <= 0 {
		return errors.New("maxSessions must be positive")
	}
	return nil
}

func (c *Config) maxSessions() int {
	return c.Options.MaxSessions.OrElse(defaultMaxSessions)
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
