package core

import (
	"context"
	"encoding/json"
)

// Role identifies who produced a conversation message.
type Role string

const (
	// RoleUser marks a message written by the end user.
	RoleUser Role = "user"

	// RoleAssistant marks a message produced by the agent.
	RoleAssistant Role = "assistant"
)

// ToolParams carries the execution context for one tool invocation.
type ToolParams struct {
	// UserID is the authenticated user the orchestrator is answering for.
	// It is supplied by the orchestrator, never by the model.
	UserID string

	// Input is the raw JSON arguments the model requested.
	Input json.RawMessage

	// RequestID identifies the orchestration call for log correlation.
	RequestID string
}

// ToolResult is the outcome of one tool invocation.
//
// Tools never return Go errors for domain conditions: "not found" and
// invalid input come back as text so a bad tool call degrades the
// conversation instead of aborting it.
type ToolResult struct {
	// Success is false only when the tool could not produce an answer
	// at all (invalid arguments, storage failure).
	Success bool

	// Data is the human-readable result text on success.
	Data interface{}

	// Error is the human-readable failure text when Success is false.
	Error string
}

// Tool is a named, read-only query function over the financial data store.
type Tool interface {
	// Name returns the tool's registry name.
	Name() string

	// Description returns the one-line description shown to the model.
	Description() string

	// InputSchema returns the JSON Schema for the tool's arguments.
	InputSchema() map[string]interface{}

	// Execute runs the tool. Domain failures are reported inside the
	// ToolResult; the error return is reserved for infrastructure
	// failures the caller may want to log.
	Execute(ctx context.Context, params *ToolParams) (*ToolResult, error)
}

// ToolInvocation records one tool call made during an orchestration turn.
// Invocations are logged, not persisted.
type ToolInvocation struct {
	Tool       string          `json:"tool"`
	Input      json.RawMessage `json:"input"`
	Result     string          `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}
