package main

import (
	"os"
	"path/filepath"
	"strings"
)

func configHome() string {
	if v := strings.TrimSpace(os.Getenv("OCTOMCP_CONFIG_HOME")); v != "" {
		return filepath.Clean(v)
	}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "octomcp")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "octomcp")
}

// defaultConfigPath returns the conventional config location, or "" when no
// file exists there. Environment variables alone are a valid configuration.
func defaultConfigPath() string {
	candidate := filepath.Join(configHome(), "config.json")
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}
