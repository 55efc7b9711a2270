package streamcodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
)

func TestWriter_EmitsTaggedLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Status("plan_subtasks"))
	require.NoError(t, w.Data("hel"))
	require.NoError(t, w.Data("lo"))
	require.NoError(t, w.Summary([]core.Message{{Role: "system", Content: "[以前の会話の要約]\nfoo"}}))
	require.NoError(t, w.ModelResponses([]core.ModelReply{{Model: "m1", Provider: "cerebras", Content: "answer"}}))

	frames := ParseFrames(buf.String())
	require.Len(t, frames, 5)

	assert.Equal(t, Frame{Tag: TagStatus, Body: "STEP:plan_subtasks"}, frames[0])
	assert.Equal(t, Frame{Tag: TagData, Body: "hel"}, frames[1])
	assert.Equal(t, Frame{Tag: TagData, Body: "lo"}, frames[2])
	assert.Equal(t, TagSummaryExecuted, frames[3].Tag)
	assert.Contains(t, frames[3].Body, "以前の会話の要約")
	assert.Equal(t, TagModelResponses, frames[4].Tag)
	assert.Contains(t, frames[4].Body, `"model":"m1"`)
}

func TestWriter_Error(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Error("all tasks failed"))

	frames := ParseFrames(buf.String())
	require.Len(t, frames, 1)
	assert.Equal(t, Frame{Tag: TagError, Body: "all tasks failed"}, frames[0])
}

func TestParseFrame_UnknownTagIgnored(t *testing.T) {
	_, ok := ParseFrame("NOTATAG:whatever")
	assert.False(t, ok)
}

func TestParseFrame_NoColonIgnored(t *testing.T) {
	_, ok := ParseFrame("no colon here")
	assert.False(t, ok)
}

func TestWriter_ModelResponsesEmptySliceNotNull(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.ModelResponses(nil))

	frames := ParseFrames(buf.String())
	require.Len(t, frames, 1)
	assert.Equal(t, "[]", frames[0].Body)
}
