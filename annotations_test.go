package main

import "testing"

import "github.com/mark3labs/mcp-go/mcp"

func TestAnnotationViewDefaults(t *testing.T) {
	tool := mcp.Tool{Name: "example"}

	annotations := annotationView(tool)

	if v, ok := annotations["readOnlyHint"].(bool); !ok || v {
		t.Fatalf("expected readOnlyHint=false, got %v", annotations["readOnlyHint"])
	}
	if v, ok := annotations["destructiveHint"].(bool); !ok || v {
		t.Fatalf("expected destructiveHint=false, got %v", annotations["destructiveHint"])
	}
	if v, ok := annotations["idempotentHint"].(bool); !ok || v {
		t.Fatalf("expected idempotentHint=false, got %v", annotations["idempotentHint"])
	}
	if v, ok := annotations["openWorldHint"].(bool); !ok || v {
		t.Fatalf("expected openWorldHint=false, got %v", annotations["openWorldHint"])
	}
}

func TestAnnotationViewPreservesExisting(t *testing.T) {
	trueVal := true
	falseVal := false
	tool := mcp.Tool{
		Name: "example",
		Annotations: mcp.ToolAnnotation{
			Title:           "My Tool",
			ReadOnlyHint:    &trueVal,
			DestructiveHint: &falseVal,
		},
	}

	annotations := annotationView(tool)

	if annotations["title"] != "My Tool" {
		t.Fatalf("expected title preserved, got %v", annotations["title"])
	}
	if v, ok := annotations["readOnlyHint"].(bool); !ok || !v {
		t.Fatalf("expected readOnlyHint=true, got %v", annotations["readOnlyHint"])
	}
	if v, ok := annotations["destructiveHint"].(bool); !ok || v {
		t.Fatalf("expected destructiveHint=false, got %v", annotations["destructiveHint"])
	}
}

func TestToolCatalogSortedAndComplete(t *testing.T) {
	defs := allToolDefinitions()
	catalog := toolCatalog(defs)

	if len(catalog) != len(defs) {
		t.Fatalf("expected %d catalog entries, got %d", len(defs), len(catalog))
	}
	for i := 1; i < len(catalog); i++ {
		prev := catalog[i-1]["name"].(string)
		cur := catalog[i]["name"].(string)
		if prev >= cur {
			t.Fatalf("catalog not sorted: %q before %q", prev, cur)
		}
	}
	for _, entry := range catalog {
		if entry["description"] == "" {
			t.Fatalf("tool %v has no description", entry["name"])
		}
	}
}

func TestToolCatalogMarksReadOnlyTools(t *testing.T) {
	catalog := toolCatalog(allToolDefinitions())
	byName := make(map[string]map[string]any, len(catalog))
	for _, entry := range catalog {
		byName[entry["name"].(string)] = entry["annotations"].(map[string]any)
	}

	if v := byName["get_repository"]["readOnlyHint"]; v != true {
		t.Fatalf("expected get_repository readOnlyHint=true, got %v", v)
	}
	if v := byName["merge_pull_request"]["destructiveHint"]; v != true {
		t.Fatalf("expected merge_pull_request destructiveHint=true, got %v", v)
	}
	if v := byName["create_issue"]["readOnlyHint"]; v != false {
		t.Fatalf("expected create_issue readOnlyHint=false, got %v", v)
	}
}
