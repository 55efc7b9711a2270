// Package cerebras implements model.Client against Cerebras' OpenAI-compatible
// Chat Completions endpoint, using the official openai-go SDK pointed at
// Cerebras' base URL rather than api.openai.com.
package cerebras

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
)

// DefaultBaseURL is Cerebras' OpenAI-compatible inference endpoint.
const DefaultBaseURL = "https://api.cerebras.ai/v1"

// Client implements model.Client against Cerebras' chat completions API. A
// new per-call SDK client is built from the credential the caller supplies,
// because the KeyPool rotates which credential services any given call.
type Client struct {
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL, mainly for tests against a local
// fake server.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// New constructs a Cerebras-backed model.Client.
func New(opts ...Option) *Client {
	c := &Client{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) sdk(key string) openai.Client {
	return openai.NewClient(option.WithAPIKey(key), option.WithBaseURL(c.baseURL))
}

func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func (c *Client) buildParams(spec core.ModelSpec, messages []core.Message) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:               spec.ModelName,
		Messages:            buildMessages(messages),
		Temperature:         openai.Float(spec.Temperature),
		MaxCompletionTokens: openai.Int(int64(spec.MaxOutputTokens)),
	}
}

// classifyErr converts an openai-go error into model.ApiError, best-effort
// extracting an HTTP status code; network failures without a status default
// to 500 per spec.
func classifyErr(err error, key, modelName string) error {
	if err == nil {
		return nil
	}
	status := 500
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return &model.ApiError{Status: status, Key: key, Model: modelName}
}

// CallBuffered implements model.Client.
func (c *Client) CallBuffered(ctx context.Context, key string, spec core.ModelSpec, messages []core.Message) (string, error) {
	sdk := c.sdk(key)
	resp, err := sdk.Chat.Completions.New(ctx, c.buildParams(spec, messages))
	if err != nil {
		return "", classifyErr(err, key, spec.ModelName)
	}
	if len(resp.Choices) == 0 {
		return "", &model.ApiError{Status: 500, Key: key, Model: spec.ModelName}
	}
	return resp.Choices[0].Message.Content, nil
}

// CallStreaming implements model.Client, forwarding each content delta to
// sink as it arrives.
func (c *Client) CallStreaming(ctx context.Context, key string, spec core.ModelSpec, messages []core.Message, sink model.TokenSink) (string, error) {
	sdk := c.sdk(key)
	stream := sdk.Chat.Completions.NewStreaming(ctx, c.buildParams(spec, messages))

	var acc strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			acc.WriteString(choice.Delta.Content)
			if err := sink.WriteToken(choice.Delta.Content); err != nil {
				return "", fmt.Errorf("cerebras: sink write failed: %w", err)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", classifyErr(err, key, spec.ModelName)
	}
	return acc.String(), nil
}
