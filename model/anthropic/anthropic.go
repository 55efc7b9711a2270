// Package anthropic implements model.Client against Anthropic's Messages
// API, for ModelSpecs that declare provider: "anthropic".
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
)

// Client implements model.Client against the Anthropic Messages API. A new
// per-call SDK client is built from the credential the caller supplies,
// since the KeyPool rotates which credential services any given call.
type Client struct{}

// New constructs an Anthropic-backed model.Client.
func New() *Client {
	return &Client{}
}

func (c *Client) sdk(key string) anthropic.Client {
	return anthropic.NewClient(option.WithAPIKey(key))
}

// buildParams translates the shared Message slice into an Anthropic request,
// pulling any system-role messages out of Messages (Anthropic takes system
// prompt out of band) and concatenating them, preserving order.
func buildParams(spec core.ModelSpec, messages []core.Message) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(spec.ModelName),
		MaxTokens:   int64(spec.MaxOutputTokens),
		Temperature: anthropic.Float(spec.Temperature),
	}

	var system []string
	var turns []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	params.Messages = turns
	return params
}

func classifyErr(err error, key, modelName string) error {
	if err == nil {
		return nil
	}
	status := 500
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return &model.ApiError{Status: status, Key: key, Model: modelName}
}

// CallBuffered implements model.Client.
func (c *Client) CallBuffered(ctx context.Context, key string, spec core.ModelSpec, messages []core.Message) (string, error) {
	sdk := c.sdk(key)
	resp, err := sdk.Messages.New(ctx, buildParams(spec, messages))
	if err != nil {
		return "", classifyErr(err, key, spec.ModelName)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	return text.String(), nil
}

// CallStreaming implements model.Client, forwarding each text delta to sink
// as it arrives and accumulating the full message via anthropic.Message's
// built-in Accumulate helper.
func (c *Client) CallStreaming(ctx context.Context, key string, spec core.ModelSpec, messages []core.Message, sink model.TokenSink) (string, error) {
	sdk := c.sdk(key)
	stream := sdk.Messages.NewStreaming(ctx, buildParams(spec, messages))

	msg := anthropic.Message{}
	var acc strings.Builder
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return "", fmt.Errorf("anthropic: accumulate stream event: %w", err)
		}

		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				acc.WriteString(delta.Text)
				if err := sink.WriteToken(delta.Text); err != nil {
					return "", fmt.Errorf("anthropic: sink write failed: %w", err)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", classifyErr(err, key, spec.ModelName)
	}
	return acc.String(), nil
}
