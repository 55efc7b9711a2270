package executor

import (
	"context"
	"fmt"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/apierr"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/logging"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
)

// IntegrationExecutor performs a single logical call (the summariser,
// planner, router, hypothesis/role generator, meta-analyser, or any
// integrate_* step's final answer) with the same retry/eviction discipline
// as one ParallelExecutor task. It shares the round-based retry core with
// ParallelExecutor via runRounds — both "N tasks with budgets" and "one task
// with a budget" reduce to the same primitive.
type IntegrationExecutor struct {
	Registry model.Registry
	Logger   *logging.StructuredLogger

	// MinRetry floors the retry budget. Zero falls back to the package
	// default of 3; operators override it via config.Config.MinRetry.
	MinRetry int
}

// NewIntegrationExecutor constructs an IntegrationExecutor bound to reg.
func NewIntegrationExecutor(reg model.Registry, logger *logging.StructuredLogger) *IntegrationExecutor {
	return &IntegrationExecutor{Registry: reg, Logger: logger}
}

// run drives a single roundTask to completion. Callers have already
// resolved the provider's Client and closed over it in call.
func (e *IntegrationExecutor) run(ctx context.Context, pools map[string]core.KeyPool, spec core.ModelSpec, call func(ctx context.Context, key string) (string, error)) (string, error) {
	rt := &roundTask{
		provider:    spec.ProviderOrDefault(),
		modelName:   spec.ModelName,
		maxAttempts: initialBudget(pools, spec.ProviderOrDefault(), e.MinRetry),
		call:        call,
	}

	runRounds(ctx, pools, e.Logger, []*roundTask{rt})

	if rt.failed {
		return "", &apierr.IntegrationFailedError{Cause: rt.lastErr}
	}
	return rt.result, nil
}

// CallBuffered performs a single buffered integration call. Used by the
// summariser, planner, hypothesis generator, router, role generator and
// meta-analyser — every caller that never provides a stream sink.
func (e *IntegrationExecutor) CallBuffered(ctx context.Context, pools map[string]core.KeyPool, spec core.ModelSpec, messages []core.Message) (string, error) {
	provider := spec.ProviderOrDefault()
	client, ok := e.Registry.Lookup(provider)
	if !ok {
		return "", &apierr.IntegrationFailedError{Cause: fmt.Errorf("no client registered for provider %q", provider)}
	}
	return e.run(ctx, pools, spec, func(ctx context.Context, key string) (string, error) {
		return client.CallBuffered(ctx, key, spec, messages)
	})
}

// CallStreaming performs a single streaming integration call, forwarding
// tokens to sink as they arrive and also returning the final buffered text.
// Used by every integrate_* step.
func (e *IntegrationExecutor) CallStreaming(ctx context.Context, pools map[string]core.KeyPool, spec core.ModelSpec, messages []core.Message, sink model.TokenSink) (string, error) {
	provider := spec.ProviderOrDefault()
	client, ok := e.Registry.Lookup(provider)
	if !ok {
		return "", &apierr.IntegrationFailedError{Cause: fmt.Errorf("no client registered for provider %q", provider)}
	}
	return e.run(ctx, pools, spec, func(ctx context.Context, key string) (string, error) {
		return client.CallStreaming(ctx, key, spec, messages, sink)
	})
}
