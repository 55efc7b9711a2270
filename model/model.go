package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
)

// TokenSink receives individual tokens from a streaming call. Implementations
// must be safe to call repeatedly and should return a non-nil error only
// when the downstream write genuinely failed (e.g. the client disconnected);
// a non-nil return aborts the in-flight upstream call.
type TokenSink interface {
	WriteToken(token string) error
}

// ApiError is the uniform error shape surfaced by every Client
// implementation, regardless of provider. Status is the HTTP status code
// if one was available, else 500 — network failures and anything else
// without a real status are normalised to 500 so classify.Status has a
// single axis to switch on.
type ApiError struct {
	Status int
	Key    string
	Model  string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("model api error: status=%d model=%s", e.Status, e.Model)
}

// Client is the minimal surface ParallelExecutor and IntegrationExecutor
// need from a backend model provider. A single credential and ModelSpec are
// passed per call; callers own key rotation and retry.
type Client interface {
	// CallBuffered performs one request/response call, accumulating the
	// entire reply before returning it.
	CallBuffered(ctx context.Context, key string, spec core.ModelSpec, messages []core.Message) (string, error)

	// CallStreaming performs one request/response call, forwarding each
	// token to sink as it arrives and also accumulating it. The
	// accumulated text is returned on normal completion even though the
	// caller may already have consumed it token-by-token via sink.
	CallStreaming(ctx context.Context, key string, spec core.ModelSpec, messages []core.Message, sink TokenSink) (string, error)
}

// Registry maps a provider name ("cerebras", "anthropic", ...) to the Client
// that services it. ParallelExecutor and IntegrationExecutor look up the
// client for each ModelSpec.ProviderOrDefault() and fail the task via the
// model-bad path (classify.Status(404): DropModel) when a provider has no
// registered client — an unconfigured ANTHROPIC_API_KEYS pool degrades a
// "provider: anthropic" spec instead of refusing to start.
type Registry map[string]Client

// Lookup returns the Client for provider, or (nil, false) if unregistered.
func (r Registry) Lookup(provider string) (Client, bool) {
	c, ok := r[provider]
	return c, ok
}

// MockClient is a deterministic in-memory Client for tests: Responses is
// keyed by model name, CallErrors by "modelName/key" so a test can script a
// model's failures on one credential independently of its outcome on
// another.
type MockClient struct {
	mu         sync.Mutex
	Responses  map[string]string
	CallErrors map[string][]error
}

// NewMockClient constructs an empty MockClient ready to register responses.
func NewMockClient() *MockClient {
	return &MockClient{Responses: map[string]string{}, CallErrors: map[string][]error{}}
}

// nextOutcome is guarded by a mutex because ParallelExecutor and
// execute_emotion_analysis's concurrent fan-outs call it from multiple
// goroutines at once, including cases where two goroutines address the same
// model (and therefore the same Responses/CallErrors keys).
func (m *MockClient) nextOutcome(key string, spec core.ModelSpec) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	composite := spec.ModelName + "/" + key
	if errs, ok := m.CallErrors[composite]; ok && len(errs) > 0 {
		err := errs[0]
		m.CallErrors[composite] = errs[1:]
		if err != nil {
			return "", err
		}
	}
	if reply, ok := m.Responses[spec.ModelName]; ok {
		return reply, nil
	}
	return fmt.Sprintf("mock reply from %s", spec.ModelName), nil
}

// CallBuffered implements Client.
func (m *MockClient) CallBuffered(_ context.Context, key string, spec core.ModelSpec, _ []core.Message) (string, error) {
	return m.nextOutcome(key, spec)
}

// CallStreaming implements Client, forwarding the buffered reply one rune at
// a time to sink before returning it.
func (m *MockClient) CallStreaming(_ context.Context, key string, spec core.ModelSpec, _ []core.Message, sink TokenSink) (string, error) {
	reply, err := m.nextOutcome(key, spec)
	if err != nil {
		return "", err
	}
	for _, r := range reply {
		if err := sink.WriteToken(string(r)); err != nil {
			return "", err
		}
	}
	return reply, nil
}
