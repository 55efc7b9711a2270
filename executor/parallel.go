package executor

import (
	"context"
	"fmt"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/apierr"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/logging"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
)

// Task is one participant in a ParallelExecutor fan-out: a ModelSpec and the
// message history it should be called with. Messages is per-task so steps
// like execute_expert_team and execute_subtasks can override the prompt
// per model without the executor knowing why.
type Task struct {
	Spec     core.ModelSpec
	Messages []core.Message
}

// ParallelExecutor fans a set of Tasks out over their respective provider
// pools, applying per-task retry budgets and cross-task key-eviction
// coordination: goroutine-per-task, sync.WaitGroup, buffered error
// aggregation.
type ParallelExecutor struct {
	Registry model.Registry
	Logger   *logging.StructuredLogger

	// MinRetry floors every task's retry budget. Zero falls back to the
	// package default of 3; operators override it via
	// config.Config.MinRetry.
	MinRetry int
}

// NewParallelExecutor constructs a ParallelExecutor bound to reg. A nil
// logger is kept as nil, which disables logging.
func NewParallelExecutor(reg model.Registry, logger *logging.StructuredLogger) *ParallelExecutor {
	return &ParallelExecutor{Registry: reg, Logger: logger}
}

// Run executes tasks to completion and returns the successful ModelReplys
// in the input order of tasks (failures omitted). It fails with
// *apierr.AllFailedError only if no task succeeded.
func (e *ParallelExecutor) Run(ctx context.Context, pools map[string]core.KeyPool, tasks []Task) ([]core.ModelReply, error) {
	rts := make([]*roundTask, len(tasks))
	for i, t := range tasks {
		provider := t.Spec.ProviderOrDefault()
		rt := &roundTask{provider: provider, modelName: t.Spec.ModelName}

		switch {
		case len(t.Messages) == 0:
			rt.done, rt.failed = true, true
			rt.lastErr = fmt.Errorf("task %s: empty messages", t.Spec.ID)
		default:
			client, ok := e.Registry.Lookup(provider)
			if !ok {
				rt.done, rt.failed = true, true
				rt.lastErr = fmt.Errorf("task %s: no client registered for provider %q", t.Spec.ID, provider)
				break
			}
			rt.maxAttempts = initialBudget(pools, provider, e.MinRetry)
			spec, messages := t.Spec, t.Messages
			rt.call = func(ctx context.Context, key string) (string, error) {
				return client.CallBuffered(ctx, key, spec, messages)
			}
		}
		rts[i] = rt
	}

	runRounds(ctx, pools, e.Logger, rts)

	replies := make([]core.ModelReply, 0, len(tasks))
	var causes []error
	for i, rt := range rts {
		switch {
		case !rt.failed:
			replies = append(replies, core.ModelReply{
				Model:    tasks[i].Spec.ModelName,
				Provider: rt.provider,
				Content:  rt.result,
			})
		default:
			causes = append(causes, rt.lastErr)
		}
	}

	if len(replies) == 0 {
		return nil, &apierr.AllFailedError{Causes: causes}
	}
	return replies, nil
}
