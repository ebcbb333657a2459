package engine

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/mcsplatform/advisor-go-sdk/core"
)

// ToolRegistry holds the tools the engine can dispatch to. Registration
// order is preserved so the model always sees a stable catalog.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]core.Tool
	order []string
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]core.Tool)}
}

// Register adds a tool. Re-registering a name replaces the previous
// tool but keeps its original position.
func (r *ToolRegistry) Register(tool core.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// RegisterAll registers every tool in the slice.
func (r *ToolRegistry) RegisterAll(tools []core.Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

// Get returns the named tool.
func (r *ToolRegistry) Get(name string) (core.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ToAPITools converts the registry to Anthropic API tool definitions.
func (r *ToolRegistry) ToAPITools() []anthropic.ToolUnionParam {
	r.mu.RLock()
	defer r.mu.RUnlock()

	apiTools := make([]anthropic.ToolUnionParam, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		schema := tool.InputSchema()

		var properties interface{}
		if p, ok := schema["properties"]; ok {
			properties = p
		}
		var required []string
		if req, ok := schema["required"].([]string); ok {
			required = req
		}

		apiTools = append(apiTools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name(),
				Description: anthropic.String(tool.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return apiTools
}

// ValidateInput checks a model-supplied argument object against the
// tool's schema before dispatch: every required field must be present
// and non-null. Type checking is left to the tool's own decoder.
func (r *ToolRegistry) ValidateInput(name string, input json.RawMessage) error {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}

	required, ok := tool.InputSchema()["required"].([]string)
	if !ok || len(required) == 0 {
		return nil
	}

	var args map[string]json.RawMessage
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return fmt.Errorf("invalid tool input JSON: %w", err)
		}
	}
	for _, field := range required {
		raw, present := args[field]
		if !present || string(raw) == "null" {
			return fmt.Errorf("missing required field: %s", field)
		}
	}
	return nil
}
