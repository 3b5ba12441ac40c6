package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToolOverrideConfig tweaks one tool without a rebuild. A nil field leaves
// the built-in definition untouched.
type ToolOverrideConfig struct {
	Enabled     *bool   `json:"enabled,omitempty"`
	Description *string `json:"description,omitempty"`
}

type ToolOverrideSet struct {
	Tools map[string]*ToolOverrideConfig `json:"tools,omitempty"`
}

func loadToolOverridesFromPath(path string) (*ToolOverrideSet, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	normalized, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve override path: %w", err)
	}
	data, err := os.ReadFile(normalized)
	if err != nil {
		return nil, err
	}
	var set ToolOverrideSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse override file %s: %w", normalized, err)
	}
	if len(set.Tools) == 0 {
		return nil, nil
	}
	return &set, nil
}

// applyToolOverrides filters out disabled tools and swaps descriptions.
// Override entries naming unknown tools are ignored rather than rejected,
// so one override file can serve several deployments.
func applyToolOverrides(defs []toolDefinition, set *ToolOverrideSet) []toolDefinition {
	if set == nil || len(set.Tools) == 0 {
		return defs
	}
	out := make([]toolDefinition, 0, len(defs))
	for _, def := range defs {
		override, ok := set.Tools[def.tool.Name]
		if !ok || override == nil {
			out = append(out, def)
			continue
		}
		if override.Enabled != nil && !*override.Enabled {
			continue
		}
		if override.Description != nil && *override.Description != "" {
			def.tool.Description = *override.Description
		}
		out = append(out, def)
	}
	return out
}
