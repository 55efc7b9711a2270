package steps

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/promptfmt"
)

// ExecuteStandard fans out all enabled models against the unchanged
// history. Output: ParallelResponses.
func ExecuteStandard(parallel *executor.ParallelExecutor) Step {
	return namedStep{name: "EXECUTE_STANDARD", fn: func(ac *core.AgentContext) error {
		if len(ac.EnabledModels) == 0 {
			return errEmptyEnabledModels("execute_standard")
		}
		replies, err := parallel.Run(ac.Context, ac.Pools, standardTasks(ac.EnabledModels, ac.LLMMessages))
		if err != nil {
			return err
		}
		ac.ParallelResponses = replies
		return nil
	}}
}

// ExecuteGenerators is execute_standard under a different name: a fan-out
// of draft answers, later consumed by execute_critics and
// integrate_with_critiques rather than integrate_standard.
func ExecuteGenerators(parallel *executor.ParallelExecutor) Step {
	return namedStep{name: "EXECUTE_GENERATORS", fn: func(ac *core.AgentContext) error {
		if len(ac.EnabledModels) == 0 {
			return errEmptyEnabledModels("execute_generators")
		}
		replies, err := parallel.Run(ac.Context, ac.Pools, standardTasks(ac.EnabledModels, ac.LLMMessages))
		if err != nil {
			return err
		}
		ac.ParallelResponses = replies
		return nil
	}}
}

func standardTasks(specs []core.ModelSpec, messages []core.Message) []executor.Task {
	tasks := make([]executor.Task, len(specs))
	for i, spec := range specs {
		tasks[i] = executor.Task{Spec: spec, Messages: messages}
	}
	return tasks
}

const expertTeamPersonaPrompt = "このタスクに取り組む %d 名の専門家ペルソナを JSON オブジェクト配列として提案してください。各要素は {\"name\": 短い呼び名, \"role\": その専門家として振る舞うための一文の指示} の形にしてください。説明文は不要です。ヒント: %s"

const defaultPersonaRole = "このタスクの一般的な専門家として振る舞ってください。"

// ExecuteExpertTeam first asks the integrator for a JSON array of {name,
// role} persona objects sized to the enabled-model count (seeded with any
// user-supplied role hints), then fans out with each model's history
// prefixed by its own persona's role as a system message. A persona object
// the integrator returned without a "role" field is backfilled with a
// fallback before use.
func ExecuteExpertTeam(parallel *executor.ParallelExecutor, integration *executor.IntegrationExecutor, fallbackModel string) Step {
	return namedStep{name: "EXECUTE_EXPERT_TEAM", fn: func(ac *core.AgentContext) error {
		if len(ac.EnabledModels) == 0 {
			return errEmptyEnabledModels("execute_expert_team")
		}

		var hints []string
		for _, spec := range ac.EnabledModels {
			if spec.Role != "" {
				hints = append(hints, spec.Role)
			}
		}

		spec := integratorSpec(ac, fallbackModel)
		prompt := fmt.Sprintf(expertTeamPersonaPrompt, len(ac.EnabledModels), strings.Join(hints, ", "))
		messages := withMessage(ac.LLMMessages, core.Message{Role: "user", Content: prompt})
		reply, err := integration.CallBuffered(ac.Context, ac.Pools, spec, messages)
		if err != nil {
			return err
		}
		personas, ok := promptfmt.ExtractPersonas(reply, defaultPersonaRole)
		if !ok || len(personas) == 0 {
			personas = []promptfmt.Persona{{Name: "generalist", Role: defaultPersonaRole}}
		}

		tasks := make([]executor.Task, len(ac.EnabledModels))
		for i, ms := range ac.EnabledModels {
			persona := personas[i%len(personas)]
			system := core.Message{Role: "system", Content: fmt.Sprintf("あなたは %s として振る舞ってください。%s", persona.Name, persona.Role)}
			tasks[i] = executor.Task{Spec: ms, Messages: withLeadingSystem(system, ac.LLMMessages)}
		}

		replies, err := parallel.Run(ac.Context, ac.Pools, tasks)
		if err != nil {
			return err
		}
		ac.ParallelResponses = replies
		return nil
	}}
}

func withLeadingSystem(system core.Message, history []core.Message) []core.Message {
	out := make([]core.Message, len(history)+1)
	out[0] = system
	copy(out[1:], history)
	return out
}

const deepThoughtSystemPrompt = "必ず次の形式で出力してください。他の形式は認められません: [思考](ここに思考過程)[/思考][最終回答](ここに最終回答)"

const deepThoughtFallbackThought = "(extraction failed)"

// ExecuteDeepThought fans out with a shared trailing system prompt
// requiring the strict [思考]...[/思考][最終回答]... format, then splits
// each reply into Thought/Content. A reply that doesn't match the format
// becomes its own answer in full, with Thought set to a fixed extraction-
// failed marker.
func ExecuteDeepThought(parallel *executor.ParallelExecutor) Step {
	return namedStep{name: "EXECUTE_DEEP_THOUGHT", fn: func(ac *core.AgentContext) error {
		if len(ac.EnabledModels) == 0 {
			return errEmptyEnabledModels("execute_deep_thought")
		}
		messages := withMessage(ac.LLMMessages, core.Message{Role: "system", Content: deepThoughtSystemPrompt})
		replies, err := parallel.Run(ac.Context, ac.Pools, standardTasks(ac.EnabledModels, messages))
		if err != nil {
			return err
		}
		for i, r := range replies {
			thought, answer := parseDeepThought(r.Content)
			replies[i].Thought = thought
			replies[i].Content = answer
		}
		ac.ParallelResponses = replies
		return nil
	}}
}

func parseDeepThought(raw string) (thought, answer string) {
	const thoughtOpen, thoughtClose, answerTag = "[思考]", "[/思考]", "[最終回答]"

	open := strings.Index(raw, thoughtOpen)
	close := strings.Index(raw, thoughtClose)
	answerAt := strings.Index(raw, answerTag)
	if open == -1 || close == -1 || close < open || answerAt == -1 || answerAt < close {
		return deepThoughtFallbackThought, raw
	}
	return raw[open+len(thoughtOpen) : close], raw[answerAt+len(answerTag):]
}

// ExecuteCritics fans out all enabled models given the original question
// and a numbered listing of drafts, asking each to critique them.
func ExecuteCritics(parallel *executor.ParallelExecutor) Step {
	return namedStep{name: "EXECUTE_CRITICS", fn: func(ac *core.AgentContext) error {
		if len(ac.EnabledModels) == 0 {
			return errEmptyEnabledModels("execute_critics")
		}
		prompt := fmt.Sprintf(
			"元の質問: %s\n\n以下の回答案を批評し、改善点を具体的に指摘してください。\n%s",
			ac.LastUserMessage().Content, promptfmt.ReplyListing(ac.ParallelResponses),
		)
		messages := []core.Message{{Role: "user", Content: prompt}}
		replies, err := parallel.Run(ac.Context, ac.Pools, standardTasks(ac.EnabledModels, messages))
		if err != nil {
			return err
		}
		ac.Critiques = replies
		return nil
	}}
}

const routerPrompt = "この会話にどのように取り組むべきか、戦略的な指示を一文だけで出力してください。前置きや説明は不要です。"

// ExecuteRouter produces a strategic system instruction and prepends it to
// LLMMessages. It runs no inference fan-out of its own.
func ExecuteRouter(integration *executor.IntegrationExecutor, fallbackModel string) Step {
	return namedStep{name: "EXECUTE_ROUTER", fn: func(ac *core.AgentContext) error {
		spec := integratorSpec(ac, fallbackModel)
		messages := withMessage(ac.LLMMessages, core.Message{Role: "user", Content: routerPrompt})
		instruction, err := integration.CallBuffered(ac.Context, ac.Pools, spec, messages)
		if err != nil {
			return err
		}
		system := core.Message{Role: "system", Content: strings.TrimSpace(instruction)}
		ac.LLMMessages = withLeadingSystem(system, ac.LLMMessages)
		return nil
	}}
}

// ExecuteSubtasks round-robin assigns each planned subtask to an enabled
// model. A model assigned more than one subtask gets a virtual ModelSpec
// copy per assignment (id = baseId + "__subtask_" + index) so
// ParallelExecutor's per-task bookkeeping stays one task per credential
// attempt rather than conflating several subtasks under one id.
func ExecuteSubtasks(parallel *executor.ParallelExecutor) Step {
	return namedStep{name: "EXECUTE_SUBTASKS", fn: func(ac *core.AgentContext) error {
		if len(ac.EnabledModels) == 0 {
			return errEmptyEnabledModels("execute_subtasks")
		}
		if len(ac.SubTasks) == 0 {
			ac.ParallelResponses = nil
			return nil
		}

		tasks := make([]executor.Task, len(ac.SubTasks))
		for i, subtask := range ac.SubTasks {
			base := ac.EnabledModels[i%len(ac.EnabledModels)]
			virtual := base
			virtual.ID = fmt.Sprintf("%s__subtask_%d", base.ID, i)
			tasks[i] = executor.Task{Spec: virtual, Messages: []core.Message{{Role: "user", Content: subtask}}}
		}

		replies, err := parallel.Run(ac.Context, ac.Pools, tasks)
		if err != nil {
			return err
		}
		ac.ParallelResponses = replies
		return nil
	}}
}

const emotionAnalysisPrompt = `次の発言の感情とトーンを分析し、JSON オブジェクト {"emotion": "...", "tone": "..."} のみを出力してください: %s`

// ExecuteEmotionAnalysis launches two fan-outs concurrently: the first
// enabled model alone analyses emotion/tone into Critiques, while all
// enabled models answer the question in parallel into ParallelResponses.
// If the answer fan-out comes back empty, the analyser's own reply is used
// as the answer so the pipeline never ends up with zero ParallelResponses.
func ExecuteEmotionAnalysis(parallel *executor.ParallelExecutor) Step {
	return namedStep{name: "EXECUTE_EMOTION_ANALYSIS", fn: func(ac *core.AgentContext) error {
		if len(ac.EnabledModels) == 0 {
			return errEmptyEnabledModels("execute_emotion_analysis")
		}

		var wg sync.WaitGroup
		var analyserReplies, answerReplies []core.ModelReply
		var analyserErr, answerErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			prompt := fmt.Sprintf(emotionAnalysisPrompt, ac.LastUserMessage().Content)
			task := executor.Task{Spec: ac.EnabledModels[0], Messages: []core.Message{{Role: "user", Content: prompt}}}
			analyserReplies, analyserErr = parallel.Run(ac.Context, ac.Pools, []executor.Task{task})
		}()
		go func() {
			defer wg.Done()
			answerReplies, answerErr = parallel.Run(ac.Context, ac.Pools, standardTasks(ac.EnabledModels, ac.LLMMessages))
		}()
		wg.Wait()

		if analyserErr != nil {
			return analyserErr
		}
		ac.Critiques = analyserReplies
		ac.ParallelResponses = emotionAnswer(analyserReplies, answerReplies, answerErr)
		return nil
	}}
}

// emotionAnswer picks what ExecuteEmotionAnalysis stores into
// ParallelResponses: the answer fan-out's replies, or the analyser's own
// reply when the answer fan-out failed or came back empty.
func emotionAnswer(analyserReplies, answerReplies []core.ModelReply, answerErr error) []core.ModelReply {
	if answerErr != nil || len(answerReplies) == 0 {
		return analyserReplies
	}
	return answerReplies
}
