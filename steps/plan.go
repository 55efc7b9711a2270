package steps

import (
	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/promptfmt"
)

const planPrompt = "以下の会話を分析し、解決に必要な具体的なサブタスクを JSON 文字列配列として出力してください。前置きや説明、コードフェンスは不要です。"

const hypothesisPrompt = "この問いには複数の解釈が考えられます。考えられる解釈を正確に3つ、JSON 文字列配列として出力してください。前置きや説明、コードフェンスは不要です。"

// PlanSubtasks asks the integrator model for a JSON array of actionable
// subtasks and stores it as AgentContext.SubTasks, demoting to a
// single-element raw-text array on parse failure.
func PlanSubtasks(integration *executor.IntegrationExecutor, fallbackModel string) Step {
	return namedStep{name: "PLAN_SUBTASKS", fn: func(ac *core.AgentContext) error {
		spec := integratorSpec(ac, fallbackModel)
		messages := withMessage(ac.LLMMessages, core.Message{Role: "user", Content: planPrompt})
		reply, err := integration.CallBuffered(ac.Context, ac.Pools, spec, messages)
		if err != nil {
			return err
		}
		ac.SubTasks = promptfmt.WithRawTextFallback(reply)
		return nil
	}}
}

// GenerateHypotheses is PlanSubtasks' sibling: it asks for exactly three
// interpretations of the question instead of subtasks, and sets
// IsHypothesis. The interpretations land in SubTasks, and integrate_report
// builds the same "subtask -> answer" report from them as in manager mode;
// it does not read IsHypothesis.
func GenerateHypotheses(integration *executor.IntegrationExecutor, fallbackModel string) Step {
	return namedStep{name: "GENERATE_HYPOTHESES", fn: func(ac *core.AgentContext) error {
		spec := integratorSpec(ac, fallbackModel)
		messages := withMessage(ac.LLMMessages, core.Message{Role: "user", Content: hypothesisPrompt})
		reply, err := integration.CallBuffered(ac.Context, ac.Pools, spec, messages)
		if err != nil {
			return err
		}
		ac.SubTasks = promptfmt.WithRawTextFallback(reply)
		ac.IsHypothesis = true
		return nil
	}}
}
