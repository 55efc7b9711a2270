package registry

import (
	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/steps"
)

// StandardMode is the fallback modeId used whenever Steps is asked for an
// id the registry does not recognise.
const StandardMode = "standard"

// Registry holds the closed set of agent modes and their step sequences.
// It is a value type (not a global singleton) so tests can build isolated
// registries bound to mock executors.
type Registry struct {
	modes map[string][]steps.Step
}

// New builds the production registry: every supported agent mode, bound to
// the given executors and the fallback integrator model name used whenever
// a request's appSettings.integratorModel is unset.
func New(parallel *executor.ParallelExecutor, integration *executor.IntegrationExecutor, fallbackIntegratorModel string) *Registry {
	summarise := steps.Summarise()

	return &Registry{modes: map[string][]steps.Step{
		"standard": {
			summarise,
			steps.ExecuteStandard(parallel),
			steps.IntegrateStandard(integration, fallbackIntegratorModel),
		},
		"expert_team": {
			summarise,
			steps.ExecuteExpertTeam(parallel, integration, fallbackIntegratorModel),
			steps.IntegrateStandard(integration, fallbackIntegratorModel),
		},
		"deep_thought": {
			summarise,
			steps.ExecuteDeepThought(parallel),
			steps.IntegrateDeepThought(integration, fallbackIntegratorModel),
		},
		"critique": {
			summarise,
			steps.ExecuteGenerators(parallel),
			steps.ExecuteCritics(parallel),
			steps.IntegrateWithCritiques(integration, fallbackIntegratorModel),
		},
		"dynamic_router": {
			summarise,
			steps.ExecuteRouter(integration, fallbackIntegratorModel),
			steps.ExecuteExpertTeam(parallel, integration, fallbackIntegratorModel),
			steps.IntegrateStandard(integration, fallbackIntegratorModel),
		},
		"manager": {
			summarise,
			steps.PlanSubtasks(integration, fallbackIntegratorModel),
			steps.ExecuteSubtasks(parallel),
			steps.IntegrateReport(integration, fallbackIntegratorModel),
		},
		"reflection_loop": {
			summarise,
			steps.ReflectionLoop(parallel, integration, fallbackIntegratorModel),
		},
		"hypothesis": {
			summarise,
			steps.GenerateHypotheses(integration, fallbackIntegratorModel),
			steps.ExecuteSubtasks(parallel),
			steps.IntegrateReport(integration, fallbackIntegratorModel),
		},
		"emotion_analysis": {
			summarise,
			steps.ExecuteEmotionAnalysis(parallel),
			steps.IntegrateWithEmotion(integration, fallbackIntegratorModel),
		},
	}}
}

// Steps returns modeId's full step sequence, including the leading
// declarative Summarise marker the orchestrator skips, falling back to
// StandardMode for an unrecognised id.
func (r *Registry) Steps(modeID string) []steps.Step {
	if s, ok := r.modes[modeID]; ok {
		return s
	}
	return r.modes[StandardMode]
}
