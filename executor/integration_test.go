package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/apierr"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
)

type bufSink struct {
	sb strings.Builder
}

func (s *bufSink) WriteToken(tok string) error {
	s.sb.WriteString(tok)
	return nil
}

func TestIntegrationExecutor_Buffered_HappyPath(t *testing.T) {
	client := model.NewMockClient()
	client.Responses["INT"] = "summary text"
	reg := model.Registry{"cerebras": client}
	ie := NewIntegrationExecutor(reg, nil)

	p := pools(t, "cerebras", []string{"KEY_OK"})
	out, err := ie.CallBuffered(context.Background(), p, core.ModelSpec{ModelName: "INT"}, msgs("hi"))
	require.NoError(t, err)
	assert.Equal(t, "summary text", out)
}

func TestIntegrationExecutor_Streaming_ForwardsTokensAndReturnsFullText(t *testing.T) {
	client := model.NewMockClient()
	client.Responses["INT"] = "abc"
	reg := model.Registry{"cerebras": client}
	ie := NewIntegrationExecutor(reg, nil)

	p := pools(t, "cerebras", []string{"KEY_OK"})
	sink := &bufSink{}
	out, err := ie.CallStreaming(context.Background(), p, core.ModelSpec{ModelName: "INT"}, msgs("hi"), sink)
	require.NoError(t, err)
	assert.Equal(t, "abc", out)
	assert.Equal(t, "abc", sink.sb.String())
}

func TestIntegrationExecutor_ExhaustedBudget_ReturnsIntegrationFailed(t *testing.T) {
	client := model.NewMockClient()
	client.CallErrors["INT/KEY_OK"] = []error{
		&model.ApiError{Status: 500}, &model.ApiError{Status: 500}, &model.ApiError{Status: 500},
	}
	reg := model.Registry{"cerebras": client}
	ie := NewIntegrationExecutor(reg, nil)

	p := pools(t, "cerebras", []string{"KEY_OK"})
	_, err := ie.CallBuffered(context.Background(), p, core.ModelSpec{ModelName: "INT"}, msgs("hi"))
	require.Error(t, err)
	var integFailed *apierr.IntegrationFailedError
	require.ErrorAs(t, err, &integFailed)
}
