// Package engine runs the advisor's agent loop: it takes one user
// message, drives the model through tool calls against the registry,
// and returns the final text answer. Conversation history lives in the
// memory store; model and tool failures degrade to apologetic text
// instead of surfacing as errors.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/mcsplatform/advisor-go-sdk/core"
	"github.com/mcsplatform/advisor-go-sdk/finstore"
	"github.com/mcsplatform/advisor-go-sdk/memory"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	defaultMaxTurns  = 10

	// historyLimit is how many stored messages are replayed into the
	// model conversation; recapLimit is how many of those are also
	// summarized into the system prompt.
	historyLimit = 5
	recapLimit   = 4
)

// Engine orchestrates one conversational turn end to end.
type Engine struct {
	model        ModelClient
	registry     *ToolRegistry
	store        *finstore.Store
	memory       *memory.Store
	systemPrompt string
	modelName    string
	maxTokens    int64
	maxTurns     int

	now func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithMemory enables conversation persistence. Without it the engine
// answers statelessly.
func WithMemory(m *memory.Store) Option {
	return func(e *Engine) { e.memory = m }
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) { e.systemPrompt = prompt }
}

// WithModel overrides the model name.
func WithModel(name string) Option {
	return func(e *Engine) { e.modelName = name }
}

// WithMaxTokens overrides the per-response token limit.
func WithMaxTokens(n int64) Option {
	return func(e *Engine) { e.maxTokens = n }
}

// New creates an engine over the given model client, tool registry,
// and financial data store.
func New(model ModelClient, registry *ToolRegistry, store *finstore.Store, opts ...Option) *Engine {
	e := &Engine{
		model:        model,
		registry:     registry,
		store:        store,
		systemPrompt: DefaultSystemPrompt,
		modelName:    defaultModel,
		maxTokens:    defaultMaxTokens,
		maxTurns:     defaultMaxTurns,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's tool registry.
func (e *Engine) Registry() *ToolRegistry {
	return e.registry
}

// Answer processes one user message and returns the assistant's reply.
//
// Plain greetings with a known user are answered from a template
// without touching the model or memory. Otherwise the engine loads
// recent history, runs the agent loop until the model stops requesting
// tools, persists both sides of the exchange, and returns the final
// text. Model failures are mapped to apologetic text; the error return
// is reserved for a canceled or expired context.
func (e *Engine) Answer(ctx context.Context, message, userID, sessionID string) (string, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "Please type a message so I can help.", nil
	}

	if userID != "" && IsGreeting(trimmed) {
		log.Printf("[AGENT] greeting short-circuit for user %s", userID)
		return personalizedGreeting(ctx, e.store, userID, e.now()), nil
	}

	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	history := e.loadHistory(ctx, userID, sessionID)

	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		switch m.Role {
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(trimmed)))

	systemPrompt := e.systemPrompt
	if userID != "" {
		systemPrompt += "\n\nA signed-in user is present. The account and balance tools operate on their data; you never need to ask for an account number to use them."
	} else {
		systemPrompt += "\n\nNo user is signed in. Personal account tools are unavailable; market-wide questions (rates, banks, products) still work."
	}
	if recap := buildRecap(history); recap != "" {
		systemPrompt += "\n\n" + recap
	}

	answer, err := e.runLoop(ctx, messages, systemPrompt, userID, sessionID)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Printf("[AGENT] model error: %v", err)
		return mapModelError(err), nil
	}

	e.persist(ctx, userID, sessionID, trimmed, answer)
	return answer, nil
}

// runLoop drives the model until it stops requesting tools or the turn
// limit is hit.
func (e *Engine) runLoop(ctx context.Context, messages []anthropic.MessageParam, systemPrompt, userID, sessionID string) (string, error) {
	apiTools := e.registry.ToAPITools()

	for turn := 0; turn < e.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(e.modelName),
			MaxTokens: e.maxTokens,
			Messages:  messages,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
		}
		if len(apiTools) > 0 {
			params.Tools = apiTools
		}

		resp, err := e.model.CreateMessage(ctx, params)
		if err != nil {
			return "", err
		}

		var textResponse string
		var toolResults []anthropic.ContentBlockParamUnion

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textResponse += block.Text
			case "tool_use":
				toolResults = append(toolResults,
					e.dispatchTool(ctx, block.ID, block.Name, block.Input, userID, sessionID))
			}
		}

		if len(toolResults) == 0 {
			return textResponse, nil
		}

		messages = append(messages, resp.ToParam())
		messages = append(messages, anthropic.NewUserMessage(toolResults...))
	}

	return "", fmt.Errorf("exceeded maximum turns (%d)", e.maxTurns)
}

// dispatchTool validates and executes one requested tool call, logging
// the invocation either way. The result block carries error text back
// to the model instead of failing the run.
func (e *Engine) dispatchTool(ctx context.Context, blockID, name string, rawInput json.RawMessage, userID, sessionID string) anthropic.ContentBlockParamUnion {
	inputBytes, _ := json.Marshal(rawInput)

	tool, ok := e.registry.Get(name)
	if !ok {
		log.Printf("[TOOL] %s rejected: unknown tool", name)
		return anthropic.NewToolResultBlock(blockID, fmt.Sprintf("unknown tool: %s", name), true)
	}

	if err := e.registry.ValidateInput(name, inputBytes); err != nil {
		log.Printf("[TOOL] %s rejected: %v (input=%s)", name, err, inputBytes)
		return anthropic.NewToolResultBlock(blockID, err.Error(), true)
	}

	start := e.now()
	result, err := tool.Execute(ctx, &core.ToolParams{
		UserID:    userID,
		Input:     inputBytes,
		RequestID: sessionID,
	})

	invocation := core.ToolInvocation{
		Tool:       name,
		Input:      inputBytes,
		DurationMs: time.Since(start).Milliseconds(),
	}

	switch {
	case err != nil:
		invocation.Error = err.Error()
		logInvocation(&invocation)
		return anthropic.NewToolResultBlock(blockID, err.Error(), true)
	case result != nil && !result.Success:
		invocation.Error = result.Error
		logInvocation(&invocation)
		return anthropic.NewToolResultBlock(blockID, result.Error, true)
	default:
		text := resultText(result)
		invocation.Result = text
		logInvocation(&invocation)
		return anthropic.NewToolResultBlock(blockID, text, false)
	}
}

// logInvocation is the tool audit trail: one line per call with name,
// arguments, duration, and outcome.
func logInvocation(inv *core.ToolInvocation) {
	if inv.Error != "" {
		log.Printf("[TOOL] %s failed in %dms: %s (input=%s)", inv.Tool, inv.DurationMs, inv.Error, inv.Input)
		return
	}
	log.Printf("[TOOL] %s ok in %dms (input=%s)", inv.Tool, inv.DurationMs, inv.Input)
}

// resultText renders a successful tool result for the model.
func resultText(result *core.ToolResult) string {
	if result == nil {
		return ""
	}
	if s, ok := result.Data.(string); ok {
		return s
	}
	bytes, _ := json.Marshal(result.Data)
	return string(bytes)
}

// loadHistory fetches recent messages for the session. Memory failures
// degrade to an empty history.
func (e *Engine) loadHistory(ctx context.Context, userID, sessionID string) []memory.Message {
	if e.memory == nil || userID == "" {
		return nil
	}
	history, err := e.memory.LoadRecent(ctx, userID, sessionID, historyLimit)
	if err != nil {
		log.Printf("[MEMORY] load failed: %v", err)
		return nil
	}
	return history
}

// buildRecap summarizes the tail of the history for the system prompt.
func buildRecap(history []memory.Message) string {
	if len(history) == 0 {
		return ""
	}
	tail := history
	if len(tail) > recapLimit {
		tail = tail[len(tail)-recapLimit:]
	}

	var b strings.Builder
	b.WriteString("Recent conversation:\n")
	for _, m := range tail {
		label := "User"
		if m.Role == core.RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// persist stores the user message and then the assistant reply.
// Persistence failures are logged and swallowed; the user already has
// their answer.
func (e *Engine) persist(ctx context.Context, userID, sessionID, userMessage, answer string) {
	if e.memory == nil || userID == "" {
		return
	}
	if err := e.memory.Append(ctx, userID, sessionID, core.RoleUser, userMessage); err != nil {
		log.Printf("[MEMORY] append user message failed: %v", err)
	}
	if answer == "" {
		return
	}
	if err := e.memory.Append(ctx, userID, sessionID, core.RoleAssistant, answer); err != nil {
		log.Printf("[MEMORY] append assistant message failed: %v", err)
	}
}

// mapModelError converts a model failure into the text shown to the
// user.
func mapModelError(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case errors.Is(err, core.ErrNotConfigured),
		strings.Contains(lower, "api key"),
		strings.Contains(lower, "authentication"),
		strings.Contains(lower, "401"):
		return "❌ API key error. Please check configuration."
	case errors.Is(err, core.ErrRateLimited),
		strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "429"),
		strings.Contains(lower, "overloaded"):
		return "⚠️ Rate limit exceeded. Please try again shortly."
	default:
		return fmt.Sprintf("❌ Error: %s", msg)
	}
}

// DefaultSystemPrompt is the advisor's default system prompt.
const DefaultSystemPrompt = `You are a helpful AI financial assistant for a bank comparison platform.

GUIDELINES:
- Be conversational, concise, and helpful
- Use the available tools to answer questions about accounts, balances, exchange rates, banks, products, and fees
- All tools are read-only; never claim to have moved money or changed account data
- Amounts always carry their currency code; never add amounts in different currencies together
- If a tool reports that data is missing, say so plainly and suggest what the user can do next

You can help with:
- Account balances and summaries
- Currency exchange rates, comparisons, and conversions
- Bank contact information
- Financial products and their fees`
