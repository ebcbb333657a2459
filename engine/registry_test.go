package engine

import (
	"encoding/json"
	"testing"
)

func TestRegistryPreservesOrder(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(&fakeTool{name: "beta"})
	registry.Register(&fakeTool{name: "alpha"})
	registry.Register(&fakeTool{name: "beta"}) // replacement keeps position

	names := registry.Names()
	if len(names) != 2 || names[0] != "beta" || names[1] != "alpha" {
		t.Errorf("names = %v, want [beta alpha]", names)
	}
	if registry.Len() != 2 {
		t.Errorf("len = %d, want 2", registry.Len())
	}
}

func TestToAPITools(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(&fakeTool{name: "lookup", required: []string{"name"}})

	apiTools := registry.ToAPITools()
	if len(apiTools) != 1 {
		t.Fatalf("got %d api tools, want 1", len(apiTools))
	}
	tool := apiTools[0].OfTool
	if tool == nil {
		t.Fatal("OfTool is nil")
	}
	if tool.Name != "lookup" {
		t.Errorf("name = %q", tool.Name)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "name" {
		t.Errorf("required = %v, want [name]", tool.InputSchema.Required)
	}
}

func TestValidateInput(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(&fakeTool{name: "lookup", required: []string{"name"}})
	registry.Register(&fakeTool{name: "open"})

	cases := []struct {
		desc    string
		tool    string
		input   string
		wantErr bool
	}{
		{"required present", "lookup", `{"name": "Arab Bank"}`, false},
		{"required missing", "lookup", `{}`, true},
		{"required null", "lookup", `{"name": null}`, true},
		{"empty input with required", "lookup", ``, true},
		{"no required fields", "open", `{}`, false},
		{"unknown tool", "nope", `{}`, true},
		{"malformed JSON", "lookup", `{`, true},
	}
	for _, tc := range cases {
		err := registry.ValidateInput(tc.tool, json.RawMessage(tc.input))
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: err = %v, wantErr = %v", tc.desc, err, tc.wantErr)
		}
	}
}
