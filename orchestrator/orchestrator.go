package orchestrator

import (
	"context"
	"time"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/apierr"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/keypool"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/logging"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/registry"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/streamcodec"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/summarize"
)

// Orchestrator is the request entry point. One instance is built at process
// startup and shared across all requests; everything request-scoped (the
// KeyPools, the AgentContext) is created fresh per call to Validate.
type Orchestrator struct {
	// Credentials maps provider name to its raw, process-wide credential
	// list (as read from CEREBRAS_API_KEYS / ANTHROPIC_API_KEYS). A fresh
	// keypool.Pool is built from it for every request, since eviction state
	// must not leak between requests.
	Credentials map[string][]string

	ParallelExec    *executor.ParallelExecutor
	IntegrationExec *executor.IntegrationExecutor
	Steps           *registry.Registry
	Logger          *logging.StructuredLogger

	MessageThreshold       int
	CharThreshold          int
	DefaultSummarizerModel string
}

// Validate parses and checks env and builds the request's KeyPools. Both
// must complete before any response byte is written so the caller can still
// choose an HTTP status code on failure. On success it returns a
// ready-to-run AgentContext with Sink left nil; Run sets it to the frame
// writer it is handed once the stream is open.
func (o *Orchestrator) Validate(ctx context.Context, env Envelope) (*core.AgentContext, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}

	pools, err := o.buildPools()
	if err != nil {
		return nil, err
	}

	return &core.AgentContext{
		Context:       ctx,
		Pools:         pools,
		LLMMessages:   env.Messages,
		EnabledModels: env.enabledModels(),
		AppConfig: core.AppConfig{
			SummarizerModel: env.Data.AppSettings.SummarizerModel.toConfig(),
			IntegratorModel: env.Data.AppSettings.IntegratorModel.toConfig(),
		},
		TotalContentLength: env.Data.TotalContentLength,
		AgentMode:          env.Data.AgentMode,
		SystemPrompt:       env.Data.SystemPrompt,
	}, nil
}

func (o *Orchestrator) buildPools() (map[string]core.KeyPool, error) {
	pools := make(map[string]core.KeyPool, len(o.Credentials))
	for provider, keys := range o.Credentials {
		if len(keys) == 0 {
			continue
		}
		pool, err := keypool.New(keys)
		if err != nil {
			return nil, err
		}
		pools[provider] = pool
	}
	if _, ok := pools["cerebras"]; !ok {
		return nil, &apierr.ConfigError{Reason: "no cerebras credentials configured"}
	}
	return pools, nil
}

func (o *Orchestrator) summarizerModel() string {
	if o.DefaultSummarizerModel == "" {
		return "llama3.3-70b"
	}
	return o.DefaultSummarizerModel
}

// Run drives an already-validated AgentContext through the summarisation
// pre-step, the system-prompt prepend, the mode's step sequence (each
// preceded by a STATUS frame), and the final DATA/MODEL_RESPONSES frame.
// Any step error is reported as a single ERROR frame and iteration stops —
// the orchestrator never reverts to an HTTP error status once w has been
// handed to it, since the transport has already committed to a 200
// response.
func (o *Orchestrator) Run(ac *core.AgentContext, w streamcodec.FrameWriter) {
	ac.Sink = w

	logger := o.Logger
	if logger != nil && ac.RequestID != "" {
		logger = logger.WithRequest(ac.RequestID, "")
	}

	summarize.Run(ac, o.IntegrationExec, o.summarizerModel(), o.MessageThreshold, o.CharThreshold, logger)

	if ac.SystemPrompt != "" {
		ac.LLMMessages = append([]core.Message{{Role: "system", Content: ac.SystemPrompt}}, ac.LLMMessages...)
	}

	modeSteps := o.Steps.Steps(ac.AgentMode)
	for _, step := range modeSteps[1:] { // index 0 is the declarative Summarise marker, already run above
		if err := w.Status(step.Name()); err != nil {
			return // client disconnected; stop without emitting further frames
		}
		start := time.Now()
		err := step.Run(ac)
		if logger != nil {
			logger.LogStepExecution(step.Name(), time.Since(start), err == nil, err)
		}
		if err != nil {
			if logger != nil {
				logger.ErrorWithStack(err, "step failed", "step", step.Name())
			}
			_ = w.Error(err.Error())
			return
		}
	}

	if !ac.FinalContentStreamed && ac.FinalContent != "" {
		if err := w.Data(ac.FinalContent); err != nil {
			return
		}
	}

	responses := ac.ModelResponses
	if responses == nil {
		responses = ac.ParallelResponses
	}
	_ = w.ModelResponses(responses)
}
