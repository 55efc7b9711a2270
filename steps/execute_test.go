package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/keypool"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/logging"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
)

type captureSink struct {
	data     []string
	statuses []string
}

func (s *captureSink) Data(chunk string) error {
	s.data = append(s.data, chunk)
	return nil
}
func (s *captureSink) Status(step string) error {
	s.statuses = append(s.statuses, step)
	return nil
}
func (s *captureSink) Summary([]core.Message) error { return nil }

func newTestContext(t *testing.T, models []core.ModelSpec, history []core.Message) (*core.AgentContext, *model.MockClient) {
	t.Helper()
	pool, err := keypool.New([]string{"KEY_OK"})
	require.NoError(t, err)

	client := model.NewMockClient()
	registry := model.Registry{"cerebras": client}
	_ = registry

	return &core.AgentContext{
		Context:       context.Background(),
		Pools:         map[string]core.KeyPool{"cerebras": pool},
		LLMMessages:   history,
		EnabledModels: models,
		Sink:          &captureSink{},
	}, client
}

func newExecutors(registry model.Registry) (*executor.ParallelExecutor, *executor.IntegrationExecutor) {
	logger := logging.NewLogger(nil)
	return executor.NewParallelExecutor(registry, logger), executor.NewIntegrationExecutor(registry, logger)
}

func TestExecuteStandard_PopulatesParallelResponses(t *testing.T) {
	models := []core.ModelSpec{{ID: "m1", ModelName: "A", Enabled: true}}
	ac, client := newTestContext(t, models, []core.Message{{Role: "user", Content: "hi"}})
	client.Responses["A"] = "hello"

	registry := model.Registry{"cerebras": client}
	parallel, _ := newExecutors(registry)

	require.NoError(t, ExecuteStandard(parallel).Run(ac))
	require.Len(t, ac.ParallelResponses, 1)
	assert.Equal(t, "hello", ac.ParallelResponses[0].Content)
	assert.Equal(t, "cerebras", ac.ParallelResponses[0].Provider)
}

func TestExecuteStandard_EmptyEnabledModelsGuarded(t *testing.T) {
	ac, client := newTestContext(t, nil, []core.Message{{Role: "user", Content: "hi"}})
	registry := model.Registry{"cerebras": client}
	parallel, _ := newExecutors(registry)

	err := ExecuteStandard(parallel).Run(ac)
	assert.Error(t, err)
}

func TestExecuteDeepThought_ParsesThoughtAndAnswer(t *testing.T) {
	models := []core.ModelSpec{{ID: "m1", ModelName: "A", Enabled: true}}
	ac, client := newTestContext(t, models, []core.Message{{Role: "user", Content: "hi"}})
	client.Responses["A"] = "[思考]plan[/思考][最終回答]answer"

	registry := model.Registry{"cerebras": client}
	parallel, _ := newExecutors(registry)

	require.NoError(t, ExecuteDeepThought(parallel).Run(ac))
	require.Len(t, ac.ParallelResponses, 1)
	assert.Equal(t, "plan", ac.ParallelResponses[0].Thought)
	assert.Equal(t, "answer", ac.ParallelResponses[0].Content)
}

func TestExecuteDeepThought_FallsBackOnUnstructuredReply(t *testing.T) {
	models := []core.ModelSpec{{ID: "m1", ModelName: "A", Enabled: true}}
	ac, client := newTestContext(t, models, []core.Message{{Role: "user", Content: "hi"}})
	client.Responses["A"] = "raw"

	registry := model.Registry{"cerebras": client}
	parallel, _ := newExecutors(registry)

	require.NoError(t, ExecuteDeepThought(parallel).Run(ac))
	require.Len(t, ac.ParallelResponses, 1)
	assert.Equal(t, "raw", ac.ParallelResponses[0].Content)
	assert.Equal(t, deepThoughtFallbackThought, ac.ParallelResponses[0].Thought)
}

func TestExecuteSubtasks_RoundRobinsAcrossModels(t *testing.T) {
	models := []core.ModelSpec{{ID: "m1", ModelName: "A", Enabled: true}, {ID: "m2", ModelName: "B", Enabled: true}}
	ac, client := newTestContext(t, models, []core.Message{{Role: "user", Content: "hi"}})
	client.Responses["A"] = "a-answer"
	client.Responses["B"] = "b-answer"
	ac.SubTasks = []string{"task1", "task2", "task3"}

	registry := model.Registry{"cerebras": client}
	parallel, _ := newExecutors(registry)

	require.NoError(t, ExecuteSubtasks(parallel).Run(ac))
	require.Len(t, ac.ParallelResponses, 3)
}

func TestExecuteEmotionAnalysis_HappyPath(t *testing.T) {
	models := []core.ModelSpec{{ID: "m1", ModelName: "A", Enabled: true}}
	ac, client := newTestContext(t, models, []core.Message{{Role: "user", Content: "hi"}})
	client.Responses["A"] = `{"emotion":"joy","tone":"casual"}`

	registry := model.Registry{"cerebras": client}
	parallel, _ := newExecutors(registry)

	err := ExecuteEmotionAnalysis(parallel).Run(ac)
	require.NoError(t, err)
	require.Len(t, ac.Critiques, 1)
	require.NotEmpty(t, ac.ParallelResponses)
}

func TestEmotionAnswer_FallsBackToAnalyserWhenAnswerFanOutEmpty(t *testing.T) {
	analyser := []core.ModelReply{{Model: "A", Content: "analysis"}}
	assert.Equal(t, analyser, emotionAnswer(analyser, nil, nil))
	assert.Equal(t, analyser, emotionAnswer(analyser, []core.ModelReply{}, nil))
	assert.Equal(t, analyser, emotionAnswer(analyser, []core.ModelReply{{Model: "B"}}, assert.AnError))
}

func TestEmotionAnswer_UsesAnswerFanOutWhenPresent(t *testing.T) {
	analyser := []core.ModelReply{{Model: "A", Content: "analysis"}}
	answers := []core.ModelReply{{Model: "B", Content: "answer"}}
	assert.Equal(t, answers, emotionAnswer(analyser, answers, nil))
}
