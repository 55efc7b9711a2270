package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
)

func TestReflectionLoop_RunsAllThreePhasesAndEmitsStatusPerPhase(t *testing.T) {
	models := []core.ModelSpec{{ID: "m1", ModelName: "A", Enabled: true}}
	ac, client := newTestContext(t, models, []core.Message{{Role: "user", Content: "hi"}})
	client.Responses["A"] = "[思考]reasoning[/思考][最終回答]draft answer"
	client.Responses["INT"] = "reflected final"

	registry := model.Registry{"cerebras": client}
	parallel, integration := newExecutors(registry)

	require.NoError(t, ReflectionLoop(parallel, integration, "INT").Run(ac))
	assert.Equal(t, "reflected final", ac.FinalContent)
	assert.True(t, ac.FinalContentStreamed)

	sink := ac.Sink.(*captureSink)
	assert.Equal(t, []string{"EXECUTE_DEEP_THOUGHT", "EXECUTE_CRITICS", "INTEGRATE_WITH_CRITIQUES"}, sink.statuses)
}
