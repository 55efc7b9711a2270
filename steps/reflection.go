package steps

import (
	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
)

// ReflectionLoop composes execute_deep_thought -> execute_critics ->
// integrate_with_critiques into a single named step, emitting its own
// STATUS frame ahead of each sub-phase.
func ReflectionLoop(parallel *executor.ParallelExecutor, integration *executor.IntegrationExecutor, fallbackModel string) Step {
	phases := []Step{
		ExecuteDeepThought(parallel),
		ExecuteCritics(parallel),
		IntegrateWithCritiques(integration, fallbackModel),
	}

	return namedStep{name: "REFLECTION_LOOP", fn: func(ac *core.AgentContext) error {
		for _, phase := range phases {
			if ac.Sink != nil {
				if err := ac.Sink.Status(phase.Name()); err != nil {
					return err
				}
			}
			if err := phase.Run(ac); err != nil {
				return err
			}
		}
		return nil
	}}
}
