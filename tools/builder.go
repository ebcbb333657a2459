package tools

import (
	"context"

	"github.com/mcsplatform/advisor-go-sdk/core"
)

// HandlerFunc executes a tool invocation.
type HandlerFunc func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error)

// Builder constructs a core.Tool fluently:
//
//	tools.New("get_fx_rate").
//		Description("Get the exchange rate between two currencies.").
//		Schema(tools.ObjectSchema(...)).
//		Handler(fn).
//		Build()
type Builder struct {
	name        string
	description string
	schema      map[string]interface{}
	handler     HandlerFunc
}

// New starts building a tool with the given registry name.
func New(name string) *Builder {
	return &Builder{
		name:   name,
		schema: ObjectSchema(map[string]interface{}{}),
	}
}

// Description sets the one-line description shown to the model.
func (b *Builder) Description(description string) *Builder {
	b.description = description
	return b
}

// Schema sets the JSON Schema for the tool's arguments.
func (b *Builder) Schema(schema map[string]interface{}) *Builder {
	b.schema = schema
	return b
}

// Handler sets the execution function.
func (b *Builder) Handler(fn HandlerFunc) *Builder {
	b.handler = fn
	return b
}

// Build returns the finished tool.
func (b *Builder) Build() core.Tool {
	return &builtTool{
		name:        b.name,
		description: b.description,
		schema:      b.schema,
		handler:     b.handler,
	}
}

type builtTool struct {
	name        string
	description string
	schema      map[string]interface{}
	handler     HandlerFunc
}

func (t *builtTool) Name() string                        { return t.name }
func (t *builtTool) Description() string                 { return t.description }
func (t *builtTool) InputSchema() map[string]interface{} { return t.schema }

func (t *builtTool) Execute(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	if t.handler == nil {
		return &core.ToolResult{Success: false, Error: "tool has no handler"}, nil
	}
	return t.handler(ctx, params)
}
