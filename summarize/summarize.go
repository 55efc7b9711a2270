package summarize

import (
	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/logging"
)

// MessageThreshold and CharThreshold are the fixed defaults. Operators may
// override them via config.Config; the orchestrator passes whichever
// values are in effect into Run.
const (
	MessageThreshold = 10
	CharThreshold    = 30000
)

// summaryPrefix is the literal synthetic system message header prepended to
// a generated summary.
const summaryPrefix = "[以前の会話の要約]\n"

const summariserPrompt = "以下の会話を、第三者視点の詳細な要約に圧縮してください。システムプロンプトに示された意図は保持してください。"

// ShouldRun reports whether the summarisation pre-step should trigger for
// ac, given the effective thresholds.
func ShouldRun(ac *core.AgentContext, messageThreshold, charThreshold int) bool {
	return len(ac.LLMMessages) > messageThreshold || ac.TotalContentLength > charThreshold
}

// Run performs the summarisation pre-step in place on ac. It is a no-op
// when ShouldRun is false. On success it replaces ac.LLMMessages with
// exactly two entries (the synthetic summary system message and the
// trailing user message), sets SummaryExecuted/NewHistoryContext, and
// emits a SUMMARY_EXECUTED frame via ac.Sink. On failure — either the
// integrator call or the frame emission — it logs and leaves ac.LLMMessages
// exactly as received; summarisation failure is never fatal to the request.
func Run(ac *core.AgentContext, integration *executor.IntegrationExecutor, fallbackModel string, messageThreshold, charThreshold int, logger *logging.StructuredLogger) {
	if !ShouldRun(ac, messageThreshold, charThreshold) || len(ac.LLMMessages) == 0 {
		return
	}

	lastUser := ac.LLMMessages[len(ac.LLMMessages)-1]
	toSummarise := ac.LLMMessages[:len(ac.LLMMessages)-1]

	spec := summariserSpec(ac, fallbackModel)
	messages := make([]core.Message, len(toSummarise)+1)
	copy(messages, toSummarise)
	messages[len(toSummarise)] = core.Message{Role: "user", Content: summariserPrompt}

	summary, err := integration.CallBuffered(ac.Context, ac.Pools, spec, messages)
	if err != nil {
		if logger != nil {
			logger.Warn("summarisation failed, continuing with uncompressed history", "error", err.Error())
		}
		return
	}

	summaryMessage := core.Message{Role: "system", Content: summaryPrefix + summary}
	newHistory := []core.Message{summaryMessage}

	if ac.Sink != nil {
		if err := ac.Sink.Summary(newHistory); err != nil {
			if logger != nil {
				logger.Warn("failed to emit summary frame, continuing with uncompressed history", "error", err.Error())
			}
			return
		}
	}

	ac.LLMMessages = []core.Message{summaryMessage, lastUser}
	ac.SummaryExecuted = true
	ac.NewHistoryContext = newHistory
}

func summariserSpec(ac *core.AgentContext, fallbackModel string) core.ModelSpec {
	spec := core.ModelSpec{
		ID:              "summarizer",
		ModelName:       fallbackModel,
		Temperature:     0.3,
		MaxOutputTokens: 1024,
		Enabled:         true,
	}
	if cfg := ac.AppConfig.SummarizerModel; cfg != nil {
		if cfg.ModelName != "" {
			spec.ModelName = cfg.ModelName
		}
		spec.Temperature = cfg.Temperature
		spec.MaxOutputTokens = cfg.MaxOutputTokens
	}
	return spec
}
