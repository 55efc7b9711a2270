package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/classify"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/keypool"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/logging"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
)

// MinRetry is the floor on a task's retry budget, even against a
// single-credential pool.
const MinRetry = 3

// roundTask is one retriable unit of work: either a single fan-out task
// (ParallelExecutor) or the sole task behind a logical integration call
// (IntegrationExecutor). call performs one attempt with the given
// credential; it is a closure over the ModelSpec, messages and (for
// streaming integration) the sink, so the round loop itself stays provider-
// and mode-agnostic.
type roundTask struct {
	provider  string
	modelName string

	attempts    int
	maxAttempts int

	done    bool
	failed  bool
	result  string
	lastErr error

	call func(ctx context.Context, key string) (string, error)
}

type roundOutcome struct {
	task *roundTask
	key  string
	err  error
	dur  time.Duration
}

// runRounds drives tasks to completion (success, permanent failure, or
// budget exhaustion). Within a round every pending task runs concurrently;
// rounds themselves are sequential so a retried task sees a pool already
// narrowed by sibling failures in the same round.
func runRounds(ctx context.Context, pools map[string]core.KeyPool, logger *logging.StructuredLogger, tasks []*roundTask) {
	for {
		var runnable []*roundTask
		for _, t := range tasks {
			if t.done {
				continue
			}
			pool := pools[t.provider]
			if pool == nil || pool.Count() == 0 {
				t.done, t.failed = true, true
				continue
			}
			runnable = append(runnable, t)
		}
		if len(runnable) == 0 {
			return
		}

		outcomes := make([]roundOutcome, len(runnable))
		var wg sync.WaitGroup
		for i, t := range runnable {
			wg.Add(1)
			go func(i int, t *roundTask) {
				defer wg.Done()
				pool := pools[t.provider]
				key, err := pool.Next()
				if err != nil {
					outcomes[i] = roundOutcome{task: t, err: err}
					return
				}
				t.attempts++
				start := time.Now()
				result, err := t.call(ctx, key)
				outcomes[i] = roundOutcome{task: t, key: key, err: err, dur: time.Since(start)}
				if err == nil {
					t.result = result
				}
			}(i, t)
		}
		wg.Wait()

		evictedProviders := map[string]bool{}
		for _, oc := range outcomes {
			t := oc.task
			if logger != nil {
				logger.LogModelCall(t.provider, t.modelName, oc.dur, oc.err == nil, oc.err)
			}
			if oc.err == nil {
				t.done = true
				continue
			}
			t.lastErr = oc.err

			if errors.Is(oc.err, keypool.ErrPoolExhausted) {
				t.done, t.failed = true, true
				continue
			}

			cls := classify.Status(statusOf(oc.err))
			if cls.EvictKey && oc.key != "" {
				if pool := pools[t.provider]; pool != nil {
					pool.Evict(oc.key)
					evictedProviders[t.provider] = true
					if logger != nil {
						logger.LogKeyEviction(t.provider, t.modelName, statusOf(oc.err), pool.Count())
					}
				}
			}
			if cls.Permanent && cls.DropModel {
				t.done, t.failed = true, true
			}
		}

		// Any eviction this round raises every still-pending sibling's budget
		// on the same provider, monotonically, before retry/fail decisions
		// are made.
		for _, t := range tasks {
			if t.done || !evictedProviders[t.provider] {
				continue
			}
			if pool := pools[t.provider]; pool != nil {
				if candidate := t.attempts + pool.Count(); candidate > t.maxAttempts {
					t.maxAttempts = candidate
				}
			}
		}

		for _, oc := range outcomes {
			t := oc.task
			if t.done {
				continue
			}
			if t.attempts >= t.maxAttempts {
				t.done, t.failed = true, true
			}
		}
	}
}

// statusOf extracts the HTTP-ish status code backing err, defaulting to 500
// for anything that is not a *model.ApiError (network failures, context
// cancellation, etc.), matching ApiError's own convention.
func statusOf(err error) int {
	var apiErr *model.ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 500
}

// initialBudget computes a roundTask's starting retry budget from the
// provider pool's current size, floored at minRetry (callers pass
// config.Config.MinRetry when operators have overridden the package
// default; zero or negative falls back to MinRetry).
func initialBudget(pools map[string]core.KeyPool, provider string, minRetry int) int {
	if minRetry <= 0 {
		minRetry = MinRetry
	}
	count := 0
	if pool := pools[provider]; pool != nil {
		count = pool.Count()
	}
	return max(count, minRetry)
}
