package steps

import (
	"fmt"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
)

// Step is one atomic unit of an agent mode's pipeline.
type Step interface {
	// Name identifies the step for STATUS frames and registry tables. It is
	// the upper-snake-case form of the step's function name, e.g.
	// "EXECUTE_STANDARD".
	Name() string
	Run(ac *core.AgentContext) error
}

type namedStep struct {
	name string
	fn   func(ac *core.AgentContext) error
}

func (s namedStep) Name() string                   { return s.name }
func (s namedStep) Run(ac *core.AgentContext) error { return s.fn(ac) }

// sinkAdapter makes a core.FrameSink usable wherever a model.TokenSink is
// expected, so steps never have to import package model to stream tokens.
type sinkAdapter struct{ sink core.FrameSink }

func (a *sinkAdapter) WriteToken(token string) error { return a.sink.Data(token) }

// Summarise is a declarative marker step: every mode's step list begins
// with it to document that summarisation always runs first, even though the
// orchestrator actually runs the summariser as its own pre-step before
// looking up the registry and never executes this entry.
func Summarise() Step {
	return namedStep{name: "SUMMARISE", fn: func(*core.AgentContext) error { return nil }}
}

// errEmptyEnabledModels guards every step that fans out: enabledModels=[]
// must be rejected consistently, not silently produce zero tasks.
func errEmptyEnabledModels(step string) error {
	return fmt.Errorf("%s: enabledModels is empty", step)
}

// integratorSpec resolves the ModelSpec to use for integrator-role calls
// (planner, router, hypothesis/role generator, meta-analyser, and every
// integrate_* step), falling back to fallbackModel and sane defaults when
// AppConfig.IntegratorModel was not supplied in the request envelope.
func integratorSpec(ac *core.AgentContext, fallbackModel string) core.ModelSpec {
	return modelSpecFromConfig("integrator", ac.AppConfig.IntegratorModel, fallbackModel)
}

func modelSpecFromConfig(id string, cfg *core.ModelConfig, fallbackModel string) core.ModelSpec {
	spec := core.ModelSpec{
		ID:              id,
		ModelName:       fallbackModel,
		Temperature:     0.7,
		MaxOutputTokens: 2048,
		Enabled:         true,
	}
	if cfg != nil {
		if cfg.ModelName != "" {
			spec.ModelName = cfg.ModelName
		}
		spec.Temperature = cfg.Temperature
		spec.MaxOutputTokens = cfg.MaxOutputTokens
	}
	return spec
}

// withMessage appends one synthetic message to history without mutating the
// caller's backing array.
func withMessage(history []core.Message, msg core.Message) []core.Message {
	out := make([]core.Message, len(history)+1)
	copy(out, history)
	out[len(history)] = msg
	return out
}
