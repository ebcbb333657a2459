package engine

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mcsplatform/advisor-go-sdk/core"
)

// ModelClient abstracts the model API so the engine can be tested
// without network access.
type ModelClient interface {
	CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// AnthropicModel is the production ModelClient backed by the Anthropic API.
type AnthropicModel struct {
	client *anthropic.Client
	stream func(chunk string)
}

// ModelOption configures the Anthropic adapter.
type ModelOption func(*AnthropicModel)

// WithStreamHandler makes the adapter consume the streaming API and
// forward each text delta to fn as it arrives. The final message is
// still returned whole.
func WithStreamHandler(fn func(chunk string)) ModelOption {
	return func(m *AnthropicModel) {
		m.stream = fn
	}
}

// NewAnthropicModel creates the adapter. An empty API key is a
// configuration error, reported before the first request rather than
// as a confusing 401 later.
func NewAnthropicModel(apiKey string, opts ...ModelOption) (*AnthropicModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key: %w", core.ErrNotConfigured)
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	m := &AnthropicModel{client: &client}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CreateMessage sends one model request.
func (m *AnthropicModel) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	if m.stream != nil {
		return m.createMessageStreaming(ctx, params)
	}
	return m.client.Messages.New(ctx, params)
}

// createMessageStreaming accumulates the streamed events into a full
// message while forwarding text deltas to the stream handler.
func (m *AnthropicModel) createMessageStreaming(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	stream := m.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			continue // accumulation errors are non-fatal
		}
		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := evt.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				m.stream(delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &message, nil
}
