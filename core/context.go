package core

import "context"

// Message is one turn of conversation history. It carries no server-side
// identity — the orchestrator never persists it beyond the lifetime of a
// single request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelConfig carries the tunables for a model used outside the enabled-model
// fan-out: the summariser, the planner/router/hypothesis/role generator, and
// the meta-analyser all reuse the integrator model.
type ModelConfig struct {
	ModelName       string  `json:"modelName"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// AppConfig configures the summariser and integrator models. Either may be
// nil; callers then fall back to a configured default model name with fixed
// temperature and token limits.
type AppConfig struct {
	SummarizerModel *ModelConfig `json:"summarizerModel,omitempty"`
	IntegratorModel *ModelConfig `json:"integratorModel,omitempty"`
}

// ModelSpec describes one participant in a parallel fan-out. Id is opaque
// and must be distinct within a request even when the same backing model
// participates more than once (virtual duplicates, e.g. execute_subtasks'
// per-task copies).
type ModelSpec struct {
	ID              string  `json:"id"`
	ModelName       string  `json:"modelName"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Enabled         bool    `json:"enabled"`
	Role            string  `json:"role,omitempty"`
	// Provider selects the backend client. Defaults to "cerebras" when empty.
	Provider string `json:"provider,omitempty"`
}

// ProviderOrDefault returns Provider, defaulting to "cerebras" when unset.
func (m ModelSpec) ProviderOrDefault() string {
	if m.Provider == "" {
		return "cerebras"
	}
	return m.Provider
}

// ModelReply is one fan-out result surfaced to the client.
type ModelReply struct {
	Model    string `json:"model"`
	Provider string `json:"provider"`
	Content  string `json:"content"`
	Thought  string `json:"thought,omitempty"`
}

// KeyPool is the minimal surface ParallelExecutor, IntegrationExecutor and
// the step library need from a credential pool. The concrete implementation
// lives in package keypool; this interface keeps core free of that
// dependency, the same way it stays free of any concrete logger or
// transport dependency.
type KeyPool interface {
	Next() (string, error)
	Evict(key string)
	Count() int
}

// FrameSink is the minimal surface steps and executors need to emit
// protocol frames to the client without depending on the streamcodec
// package's concrete writer.
type FrameSink interface {
	Data(chunk string) error
	Status(step string) error
	Summary(history []Message) error
}

// AgentContext is the mutable record threaded through a mode's step
// sequence. Inputs are set once by the orchestrator before the first step
// runs; outputs are progressively filled by steps as they execute. Steps
// execute sequentially, so interior mutability is sufficient — no field is
// read and written concurrently by two steps.
type AgentContext struct {
	// Context carries cancellation for the whole request; all blocking
	// calls (model calls, summariser, integration) must respect it.
	Context context.Context

	// --- inputs, set once before the first step runs ---

	// Pools maps provider name ("cerebras", "anthropic", ...) to its
	// request-scoped KeyPool. Absent providers have no usable credentials.
	Pools         map[string]KeyPool
	LLMMessages   []Message
	EnabledModels []ModelSpec
	AppConfig     AppConfig
	Sink          FrameSink

	TotalContentLength int
	AgentMode          string
	SystemPrompt       string

	// RequestID correlates this request's log lines across steps. It
	// carries no protocol meaning (never serialised onto the wire) and is
	// empty unless the transport layer (httpapi) assigned one.
	RequestID string

	// --- outputs, progressively filled by steps ---

	ParallelResponses    []ModelReply
	Critiques            []ModelReply
	SubTasks             []string
	IsHypothesis         bool
	FinalContent         string
	ModelResponses       []ModelReply
	SummaryExecuted      bool
	NewHistoryContext    []Message
	FinalContentStreamed bool
}

// Pool returns the KeyPool for provider, or nil if none is configured.
func (ac *AgentContext) Pool(provider string) KeyPool {
	if ac.Pools == nil {
		return nil
	}
	return ac.Pools[provider]
}

// LastUserMessage returns the final message in LLMMessages. Callers that
// rely on invariant 2 (history ends in a user message at inference time)
// may assume a non-empty, role == "user" result once that invariant holds.
func (ac *AgentContext) LastUserMessage() Message {
	if len(ac.LLMMessages) == 0 {
		return Message{}
	}
	return ac.LLMMessages[len(ac.LLMMessages)-1]
}
