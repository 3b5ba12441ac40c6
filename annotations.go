package main

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// annotationView flattens a tool's behavior hints with explicit false
// defaults, so catalog consumers never have to distinguish unset from false.
func annotationView(tool mcp.Tool) map[string]any {
	hints := tool.Annotations
	view := make(map[string]any, 5)
	if hints.Title != "" {
		view["title"] = hints.Title
	}
	for key, hint := range map[string]*bool{
		"readOnlyHint":    hints.ReadOnlyHint,
		"destructiveHint": hints.DestructiveHint,
		"idempotentHint":  hints.IdempotentHint,
		"openWorldHint":   hints.OpenWorldHint,
	} {
		if hint != nil {
			view[key] = *hint
		} else {
			view[key] = false
		}
	}
	return view
}

// toolCatalog renders the tool table for the /tools endpoint, sorted by name.
func toolCatalog(defs []toolDefinition) []map[string]any {
	entries := make([]map[string]any, 0, len(defs))
	for _, def := range defs {
		entries = append(entries, map[string]any{
			"name":        def.tool.Name,
			"description": def.tool.Description,
			"annotations": annotationView(def.tool),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i]["name"].(string) < entries[j]["name"].(string)
	})
	return entries
}
