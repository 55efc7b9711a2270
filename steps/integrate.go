package steps

import (
	"fmt"
	"strings"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/promptfmt"
)

// streamFinal runs a streaming integration call, forwarding tokens to ac's
// sink and recording the result on FinalContent/FinalContentStreamed — the
// shape every integrate_* step but integrate_standard's single-reply
// shortcut shares.
func streamFinal(ac *core.AgentContext, integration *executor.IntegrationExecutor, spec core.ModelSpec, prompt string) error {
	messages := []core.Message{{Role: "user", Content: prompt}}
	final, err := integration.CallStreaming(ac.Context, ac.Pools, spec, messages, &sinkAdapter{ac.Sink})
	if err != nil {
		return err
	}
	ac.FinalContent = final
	ac.FinalContentStreamed = true
	return nil
}

// IntegrateStandard streams the sole reply directly when exactly one model
// answered (no integrator call needed); otherwise it builds a numbered
// listing of replies and lets the integrator synthesise a final answer.
func IntegrateStandard(integration *executor.IntegrationExecutor, fallbackModel string) Step {
	return namedStep{name: "INTEGRATE_STANDARD", fn: func(ac *core.AgentContext) error {
		ac.ModelResponses = ac.ParallelResponses

		if len(ac.ParallelResponses) == 1 {
			content := ac.ParallelResponses[0].Content
			if err := ac.Sink.Data(content); err != nil {
				return err
			}
			ac.FinalContent = content
			ac.FinalContentStreamed = true
			return nil
		}

		prompt := fmt.Sprintf(
			"元の質問: %s\n\n以下の複数の回答案を統合し、一つの最終回答を作成してください。\n%s",
			ac.LastUserMessage().Content, promptfmt.ReplyListing(ac.ParallelResponses),
		)
		return streamFinal(ac, integration, integratorSpec(ac, fallbackModel), prompt)
	}}
}

// IntegrateDeepThought is IntegrateStandard's sibling for deep_thought mode:
// the listing carries both Thought and Content per reply.
func IntegrateDeepThought(integration *executor.IntegrationExecutor, fallbackModel string) Step {
	return namedStep{name: "INTEGRATE_DEEP_THOUGHT", fn: func(ac *core.AgentContext) error {
		ac.ModelResponses = ac.ParallelResponses

		prompt := fmt.Sprintf(
			"元の質問: %s\n\n以下は各モデルの思考過程と回答です。これらを踏まえて一つの最終回答を作成してください。\n%s",
			ac.LastUserMessage().Content, promptfmt.ReplyListingWithThought(ac.ParallelResponses),
		)
		return streamFinal(ac, integration, integratorSpec(ac, fallbackModel), prompt)
	}}
}

// IntegrateWithCritiques asks the integrator to act as a final editor,
// reconciling drafts with critiques. ModelResponses exposes both slots so
// the UI can show the critique pass alongside the original drafts.
func IntegrateWithCritiques(integration *executor.IntegrationExecutor, fallbackModel string) Step {
	return namedStep{name: "INTEGRATE_WITH_CRITIQUES", fn: func(ac *core.AgentContext) error {
		prompt := fmt.Sprintf(
			"あなたは最終編集者です。以下の下書きと批評の内容をすべて反映し、最終回答を作成してください。\n\n元の質問: %s\n\n下書き:\n%s\n批評:\n%s",
			ac.LastUserMessage().Content,
			promptfmt.ReplyListing(ac.ParallelResponses),
			promptfmt.ReplyListing(ac.Critiques),
		)
		if err := streamFinal(ac, integration, integratorSpec(ac, fallbackModel), prompt); err != nil {
			return err
		}
		ac.ModelResponses = append(append([]core.ModelReply{}, ac.ParallelResponses...), ac.Critiques...)
		return nil
	}}
}

// IntegrateReport builds a {subtask, reply} report and asks the integrator
// to synthesise it into one final answer to the original question. Used by
// manager (subtasks) and hypothesis (interpretations) modes alike.
func IntegrateReport(integration *executor.IntegrationExecutor, fallbackModel string) Step {
	return namedStep{name: "INTEGRATE_REPORT", fn: func(ac *core.AgentContext) error {
		var report strings.Builder
		for i, reply := range ac.ParallelResponses {
			label := ""
			if i < len(ac.SubTasks) {
				label = ac.SubTasks[i]
			}
			fmt.Fprintf(&report, "%d. %s\n   回答: %s\n", i+1, label, reply.Content)
		}

		prompt := fmt.Sprintf(
			"以下は個々のサブタスクへの回答です。これらをまとめ、元の質問に対する統合された最終回答を作成してください。\n\n元の質問: %s\n\n%s",
			ac.LastUserMessage().Content, report.String(),
		)
		if err := streamFinal(ac, integration, integratorSpec(ac, fallbackModel), prompt); err != nil {
			return err
		}
		ac.ModelResponses = ac.ParallelResponses
		return nil
	}}
}

// IntegrateWithEmotion rewrites the drafts in the tone surfaced by
// Critiques[0], the emotion analyser's reply (a deliberate reuse of the
// Critiques slot rather than a dedicated field).
func IntegrateWithEmotion(integration *executor.IntegrationExecutor, fallbackModel string) Step {
	return namedStep{name: "INTEGRATE_WITH_EMOTION", fn: func(ac *core.AgentContext) error {
		analysis := ""
		if len(ac.Critiques) > 0 {
			analysis = ac.Critiques[0].Content
		}
		prompt := fmt.Sprintf(
			"次の感情分析の結果に合わせたトーンで、下書きを書き直し最終回答としてください。\n\n感情分析: %s\n\n下書き:\n%s",
			analysis, promptfmt.ReplyListing(ac.ParallelResponses),
		)
		if err := streamFinal(ac, integration, integratorSpec(ac, fallbackModel), prompt); err != nil {
			return err
		}
		ac.ModelResponses = ac.ParallelResponses
		return nil
	}}
}
