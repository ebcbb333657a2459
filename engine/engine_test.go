package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/mcsplatform/advisor-go-sdk/core"
	"github.com/mcsplatform/advisor-go-sdk/finstore"
	"github.com/mcsplatform/advisor-go-sdk/memory"
)

// fakeModel replays scripted responses and records every request.
type fakeModel struct {
	responses []*anthropic.Message
	err       error
	calls     int
	requests  []anthropic.MessageNewParams
}

func (f *fakeModel) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	f.requests = append(f.requests, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.responses) {
		return nil, errors.New("fake model: no scripted response left")
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func textMessage(text string) *anthropic.Message {
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: text},
		},
	}
}

func toolUseMessage(blockID, name, input string) *anthropic.Message {
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "tool_use", ID: blockID, Name: name, Input: json.RawMessage(input)},
		},
	}
}

// fakeTool is a scriptable core.Tool.
type fakeTool struct {
	name     string
	required []string
	invoked  int
	lastUser string
	reply    string
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "test tool" }

func (f *fakeTool) InputSchema() map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
	if len(f.required) > 0 {
		schema["required"] = f.required
	}
	return schema
}

func (f *fakeTool) Execute(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	f.invoked++
	f.lastUser = params.UserID
	return &core.ToolResult{Success: true, Data: f.reply}, nil
}

func newTestFinstore(t *testing.T) *finstore.Store {
	t.Helper()
	store, err := finstore.Open(":memory:")
	if err != nil {
		t.Fatalf("open finstore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestMemory(t *testing.T) *memory.Store {
	t.Helper()
	mem, err := memory.Open(":memory:")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	t.Cleanup(func() { mem.Close() })
	return mem
}

func insertTestUser(t *testing.T, store *finstore.Store) {
	t.Helper()
	err := store.InsertUser(context.Background(), finstore.User{
		ID: "1", Username: "ahmad", FirstName: "Ahmad", LastName: "Haddad", Active: true,
	})
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
}

func TestAnswerGreetingShortCircuit(t *testing.T) {
	store := newTestFinstore(t)
	insertTestUser(t, store)
	mem := newTestMemory(t)
	model := &fakeModel{}

	eng := New(model, NewToolRegistry(), store, WithMemory(mem))

	answer, err := eng.Answer(context.Background(), "hi", "1", "s1")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !strings.Contains(answer, "Ahmad") {
		t.Errorf("greeting not personalized: %q", answer)
	}
	if model.calls != 0 {
		t.Errorf("model called %d times for a greeting", model.calls)
	}

	stored, err := mem.LoadRecent(context.Background(), "1", "s1", 10)
	if err != nil {
		t.Fatalf("load recent: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("greeting wrote %d messages to memory", len(stored))
	}
}

func TestAnswerGreetingWithoutUserGoesToModel(t *testing.T) {
	store := newTestFinstore(t)
	model := &fakeModel{responses: []*anthropic.Message{textMessage("Hello there!")}}

	eng := New(model, NewToolRegistry(), store)

	answer, err := eng.Answer(context.Background(), "hi", "", "")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "Hello there!" {
		t.Errorf("answer = %q", answer)
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1", model.calls)
	}
}

func TestAnswerEmptyMessage(t *testing.T) {
	store := newTestFinstore(t)
	model := &fakeModel{}

	eng := New(model, NewToolRegistry(), store)

	answer, err := eng.Answer(context.Background(), "   ", "1", "s1")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer == "" {
		t.Error("empty message should still get a reply")
	}
	if model.calls != 0 {
		t.Errorf("model calls = %d, want 0", model.calls)
	}
}

func TestAnswerRunsToolLoop(t *testing.T) {
	store := newTestFinstore(t)
	tool := &fakeTool{name: "ping", reply: "pong"}
	registry := NewToolRegistry()
	registry.Register(tool)

	model := &fakeModel{responses: []*anthropic.Message{
		toolUseMessage("block_1", "ping", `{"value": "x"}`),
		textMessage("All done."),
	}}

	eng := New(model, registry, store)

	answer, err := eng.Answer(context.Background(), "please ping", "1", "s1")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "All done." {
		t.Errorf("answer = %q", answer)
	}
	if tool.invoked != 1 {
		t.Errorf("tool invoked %d times, want 1", tool.invoked)
	}
	if tool.lastUser != "1" {
		t.Errorf("tool saw user %q, want 1", tool.lastUser)
	}
	if model.calls != 2 {
		t.Errorf("model calls = %d, want 2", model.calls)
	}
	// Second request must include the assistant turn and the tool result.
	if len(model.requests) == 2 && len(model.requests[1].Messages) < 3 {
		t.Errorf("second request has %d messages, want user + assistant + tool result", len(model.requests[1].Messages))
	}
}

func TestAnswerRejectsMissingRequiredField(t *testing.T) {
	store := newTestFinstore(t)
	tool := &fakeTool{name: "lookup", required: []string{"name"}}
	registry := NewToolRegistry()
	registry.Register(tool)

	model := &fakeModel{responses: []*anthropic.Message{
		toolUseMessage("block_1", "lookup", `{}`),
		textMessage("Could not look that up."),
	}}

	eng := New(model, registry, store)

	if _, err := eng.Answer(context.Background(), "look up something", "1", "s1"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if tool.invoked != 0 {
		t.Errorf("tool invoked despite missing required field")
	}
	if model.calls != 2 {
		t.Errorf("model calls = %d, want 2 (validation error goes back to the model)", model.calls)
	}
}

func TestAnswerPersistsBothSides(t *testing.T) {
	store := newTestFinstore(t)
	mem := newTestMemory(t)
	model := &fakeModel{responses: []*anthropic.Message{textMessage("Your balance is fine.")}}

	eng := New(model, NewToolRegistry(), store, WithMemory(mem))

	if _, err := eng.Answer(context.Background(), "how is my balance?", "1", "s1"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	stored, err := mem.LoadRecent(context.Background(), "1", "s1", 10)
	if err != nil {
		t.Fatalf("load recent: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d messages, want 2", len(stored))
	}
	if stored[0].Role != core.RoleUser || stored[0].Content != "how is my balance?" {
		t.Errorf("first stored message = %+v", stored[0])
	}
	if stored[1].Role != core.RoleAssistant || stored[1].Content != "Your balance is fine." {
		t.Errorf("second stored message = %+v", stored[1])
	}
}

func TestAnswerReplaysHistory(t *testing.T) {
	store := newTestFinstore(t)
	mem := newTestMemory(t)
	ctx := context.Background()

	if err := mem.Append(ctx, "1", "s1", core.RoleUser, "earlier question"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := mem.Append(ctx, "1", "s1", core.RoleAssistant, "earlier answer"); err != nil {
		t.Fatalf("append: %v", err)
	}

	model := &fakeModel{responses: []*anthropic.Message{textMessage("ok")}}
	eng := New(model, NewToolRegistry(), store, WithMemory(mem))

	if _, err := eng.Answer(ctx, "follow-up", "1", "s1"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(model.requests) != 1 {
		t.Fatalf("model calls = %d, want 1", len(model.requests))
	}
	// Two replayed messages plus the new one.
	if got := len(model.requests[0].Messages); got != 3 {
		t.Errorf("request has %d messages, want 3", got)
	}
}

func TestAnswerMapsRateLimitError(t *testing.T) {
	store := newTestFinstore(t)
	model := &fakeModel{err: errors.New("429: rate limit exceeded")}

	eng := New(model, NewToolRegistry(), store)

	answer, err := eng.Answer(context.Background(), "what is my balance?", "1", "s1")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "⚠️ Rate limit exceeded. Please try again shortly." {
		t.Errorf("answer = %q", answer)
	}
}

func TestAnswerMapsAPIKeyError(t *testing.T) {
	store := newTestFinstore(t)
	model := &fakeModel{err: errors.New("invalid api key provided")}

	eng := New(model, NewToolRegistry(), store)

	answer, err := eng.Answer(context.Background(), "what is my balance?", "1", "s1")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "❌ API key error. Please check configuration." {
		t.Errorf("answer = %q", answer)
	}
}

func TestAnswerMapsGenericError(t *testing.T) {
	store := newTestFinstore(t)
	model := &fakeModel{err: errors.New("upstream exploded")}

	eng := New(model, NewToolRegistry(), store)

	answer, err := eng.Answer(context.Background(), "what is my balance?", "1", "s1")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "❌ Error: upstream exploded" {
		t.Errorf("answer = %q", answer)
	}
}

func TestAnswerErrorIsNotPersisted(t *testing.T) {
	store := newTestFinstore(t)
	mem := newTestMemory(t)
	model := &fakeModel{err: errors.New("upstream exploded")}

	eng := New(model, NewToolRegistry(), store, WithMemory(mem))

	if _, err := eng.Answer(context.Background(), "hello world question", "1", "s1"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	stored, err := mem.LoadRecent(context.Background(), "1", "s1", 10)
	if err != nil {
		t.Fatalf("load recent: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("failed turn wrote %d messages to memory", len(stored))
	}
}
