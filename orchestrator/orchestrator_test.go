package orchestrator

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/apierr"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/registry"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/streamcodec"
)

func newOrchestrator(client *model.MockClient, credentials map[string][]string) *Orchestrator {
	reg := model.Registry{"cerebras": client}
	parallel := executor.NewParallelExecutor(reg, nil)
	integration := executor.NewIntegrationExecutor(reg, nil)
	return &Orchestrator{
		Credentials:            credentials,
		ParallelExec:           parallel,
		IntegrationExec:        integration,
		Steps:                  registry.New(parallel, integration, "INT"),
		MessageThreshold:       10,
		CharThreshold:          30000,
		DefaultSummarizerModel: "INT",
	}
}

func runEnvelope(t *testing.T, orch *Orchestrator, env Envelope) (string, error) {
	t.Helper()
	ac, err := orch.Validate(context.Background(), env)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	w := streamcodec.NewWriter(&buf)
	orch.Run(ac, w)
	return buf.String(), nil
}

func TestRun_StandardMode_SingleModel_StreamsDataAndResponses(t *testing.T) {
	client := model.NewMockClient()
	client.Responses["A"] = "hello"
	orch := newOrchestrator(client, map[string][]string{"cerebras": {"KEY_OK"}})

	env := Envelope{
		Messages: []core.Message{{Role: "user", Content: "hi"}},
		Data: envelopeData{
			AgentMode:          "standard",
			ModelSettings:      []modelSettingWire{{ID: "m1", ModelName: "A", Enabled: true}},
			TotalContentLength: 2,
		},
	}

	out, err := runEnvelope(t, orch, env)
	require.NoError(t, err)

	frames := streamcodec.ParseFrames(out)
	var dataBodies, statusBodies []string
	for _, f := range frames {
		switch f.Tag {
		case streamcodec.TagData:
			dataBodies = append(dataBodies, f.Body)
		case streamcodec.TagStatus:
			statusBodies = append(statusBodies, f.Body)
		case streamcodec.TagError:
			t.Fatalf("unexpected ERROR frame: %s", f.Body)
		}
	}
	assert.Equal(t, []string{"STEP:EXECUTE_STANDARD", "STEP:INTEGRATE_STANDARD"}, statusBodies)
	assert.Equal(t, []string{"hello"}, dataBodies)
	assert.Contains(t, out, `MODEL_RESPONSES:[{"model":"A","provider":"cerebras","content":"hello"}]`)
	assert.NotContains(t, out, "SUMMARY_EXECUTED")
}

func TestRun_KeyRotationOn401_RetriesWithNextCredential(t *testing.T) {
	client := model.NewMockClient()
	client.CallErrors["A/KEY_BAD"] = []error{&model.ApiError{Status: 401}}
	client.Responses["A"] = "ok"
	orch := newOrchestrator(client, map[string][]string{"cerebras": {"KEY_BAD", "KEY_OK"}})

	env := Envelope{
		Messages: []core.Message{{Role: "user", Content: "hi"}},
		Data: envelopeData{
			AgentMode:     "standard",
			ModelSettings: []modelSettingWire{{ID: "m1", ModelName: "A", Enabled: true}},
		},
	}

	out, err := runEnvelope(t, orch, env)
	require.NoError(t, err)
	assert.Contains(t, out, "DATA:ok")
}

func TestRun_Model404_DropsFailingModelKeepsOthers(t *testing.T) {
	client := model.NewMockClient()
	client.CallErrors["A/KEY_OK"] = []error{&model.ApiError{Status: 404}}
	client.Responses["B"] = "yes"
	orch := newOrchestrator(client, map[string][]string{"cerebras": {"KEY_OK"}})

	env := Envelope{
		Messages: []core.Message{{Role: "user", Content: "hi"}},
		Data: envelopeData{
			AgentMode: "standard",
			ModelSettings: []modelSettingWire{
				{ID: "a", ModelName: "A", Enabled: true},
				{ID: "b", ModelName: "B", Enabled: true},
			},
		},
	}

	out, err := runEnvelope(t, orch, env)
	require.NoError(t, err)
	assert.Contains(t, out, "DATA:yes")
	assert.Contains(t, out, `"model":"B"`)
	assert.NotContains(t, out, `"model":"A"`)
}

func TestRun_LongHistory_TriggersSummarisation(t *testing.T) {
	client := model.NewMockClient()
	client.Responses["INT"] = "SUM"
	client.Responses["A"] = "ok"
	orch := newOrchestrator(client, map[string][]string{"cerebras": {"KEY_OK"}})

	history := make([]core.Message, 0, 11)
	for i := 0; i < 5; i++ {
		history = append(history, core.Message{Role: "user", Content: "q"}, core.Message{Role: "assistant", Content: "a"})
	}
	history = append(history, core.Message{Role: "user", Content: "final question"})

	env := Envelope{
		Messages: history,
		Data: envelopeData{
			AgentMode:          "standard",
			ModelSettings:      []modelSettingWire{{ID: "m1", ModelName: "A", Enabled: true}},
			TotalContentLength: 40000,
		},
	}

	out, err := runEnvelope(t, orch, env)
	require.NoError(t, err)
	require.Contains(t, out, "SUMMARY_EXECUTED:")
	assert.Contains(t, out, `[以前の会話の要約]\nSUM`)
}

func TestRun_DeepThoughtMode_ParsesThoughtAndAnswer(t *testing.T) {
	client := model.NewMockClient()
	client.Responses["A"] = "[思考]plan[/思考][最終回答]answer"
	client.Responses["INT"] = "integrated: answer, plan"
	orch := newOrchestrator(client, map[string][]string{"cerebras": {"KEY_OK"}})

	env := Envelope{
		Messages: []core.Message{{Role: "user", Content: "hi"}},
		Data: envelopeData{
			AgentMode:     "deep_thought",
			ModelSettings: []modelSettingWire{{ID: "m1", ModelName: "A", Enabled: true}},
		},
	}

	out, err := runEnvelope(t, orch, env)
	require.NoError(t, err)

	var streamed strings.Builder
	for _, f := range streamcodec.ParseFrames(out) {
		if f.Tag == streamcodec.TagData {
			streamed.WriteString(f.Body)
		}
	}
	assert.Equal(t, "integrated: answer, plan", streamed.String())
}

func TestRun_AllUpstreamCallsFail_EmitsErrorFrame(t *testing.T) {
	client := model.NewMockClient()
	client.CallErrors["A/KEY_OK"] = []error{
		&model.ApiError{Status: 500}, &model.ApiError{Status: 500}, &model.ApiError{Status: 500},
	}
	orch := newOrchestrator(client, map[string][]string{"cerebras": {"KEY_OK"}})

	env := Envelope{
		Messages: []core.Message{{Role: "user", Content: "hi"}},
		Data: envelopeData{
			AgentMode:     "standard",
			ModelSettings: []modelSettingWire{{ID: "a", ModelName: "A", Enabled: true}},
		},
	}

	out, err := runEnvelope(t, orch, env)
	require.NoError(t, err)
	assert.Contains(t, out, "ERROR:")
	assert.Contains(t, out, "全ての並列推論モデルが失敗しました")
}

func TestValidate_EmptyMessages_FailsBadRequest(t *testing.T) {
	orch := newOrchestrator(model.NewMockClient(), map[string][]string{"cerebras": {"KEY_OK"}})
	_, err := orch.Validate(context.Background(), Envelope{})
	var badReq *apierr.BadRequestError
	require.ErrorAs(t, err, &badReq)
}

func TestValidate_MissingCerebrasCredentials_FailsConfigError(t *testing.T) {
	orch := newOrchestrator(model.NewMockClient(), nil)
	env := Envelope{Messages: []core.Message{{Role: "user", Content: "hi"}}}
	_, err := orch.Validate(context.Background(), env)
	var cfgErr *apierr.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestValidate_LastMessageNotUser_FailsBadRequest(t *testing.T) {
	orch := newOrchestrator(model.NewMockClient(), map[string][]string{"cerebras": {"KEY_OK"}})
	env := Envelope{Messages: []core.Message{{Role: "assistant", Content: "hi"}}}
	_, err := orch.Validate(context.Background(), env)
	var badReq *apierr.BadRequestError
	require.ErrorAs(t, err, &badReq)
}
