package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeOverrideFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overrides.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write override file: %v", err)
	}
	return path
}

func TestLoadToolOverridesEmptyPath(t *testing.T) {
	set, err := loadToolOverridesFromPath("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set != nil {
		t.Fatalf("expected nil set for empty path, got %+v", set)
	}
}

func TestLoadToolOverridesParsesFile(t *testing.T) {
	path := writeOverrideFile(t, `{
		"tools": {
			"fork_repository": {"enabled": false},
			"hello": {"description": "ping"}
		}
	}`)

	set, err := loadToolOverridesFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set == nil || len(set.Tools) != 2 {
		t.Fatalf("expected 2 override entries, got %+v", set)
	}
	fork := set.Tools["fork_repository"]
	if fork == nil || fork.Enabled == nil || *fork.Enabled {
		t.Fatalf("expected fork_repository disabled, got %+v", fork)
	}
}

func TestLoadToolOverridesRejectsBadJSON(t *testing.T) {
	path := writeOverrideFile(t, `{"tools": [`)
	if _, err := loadToolOverridesFromPath(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyToolOverridesFiltersAndRewrites(t *testing.T) {
	defs := allToolDefinitions()
	disabled := false
	note := "custom wording"
	set := &ToolOverrideSet{
		Tools: map[string]*ToolOverrideConfig{
			"fork_repository": {Enabled: &disabled},
			"get_repository":  {Description: &note},
			"no_such_tool":    {Enabled: &disabled},
		},
	}

	filtered := applyToolOverrides(defs, set)

	if len(filtered) != len(defs)-1 {
		t.Fatalf("expected one tool removed, got %d of %d", len(filtered), len(defs))
	}
	for _, def := range filtered {
		if def.tool.Name == "fork_repository" {
			t.Fatal("fork_repository should be filtered out")
		}
		if def.tool.Name == "get_repository" && def.tool.Description != note {
			t.Fatalf("expected rewritten description, got %q", def.tool.Description)
		}
	}
}

func TestApplyToolOverridesNilSetIsIdentity(t *testing.T) {
	defs := allToolDefinitions()
	if got := applyToolOverrides(defs, nil); len(got) != len(defs) {
		t.Fatalf("nil set changed the table: %d != %d", len(got), len(defs))
	}
}
