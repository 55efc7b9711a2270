package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/executor"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/model"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/orchestrator"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/registry"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/streamcodec"
)

func newTestOrchestrator(client *model.MockClient, credentials map[string][]string) *orchestrator.Orchestrator {
	reg := model.Registry{"cerebras": client}
	parallel := executor.NewParallelExecutor(reg, nil)
	integration := executor.NewIntegrationExecutor(reg, nil)
	return &orchestrator.Orchestrator{
		Credentials:            credentials,
		ParallelExec:           parallel,
		IntegrationExec:        integration,
		Steps:                  registry.New(parallel, integration, "INT"),
		MessageThreshold:       10,
		CharThreshold:          30000,
		DefaultSummarizerModel: "INT",
	}
}

func TestHandleChat_HappyPath(t *testing.T) {
	client := model.NewMockClient()
	client.Responses["A"] = "hello"
	orch := newTestOrchestrator(client, map[string][]string{"cerebras": {"KEY_OK"}})
	mux := NewServeMux(orch)

	body := `{"messages":[{"role":"user","content":"hi"}],"data":{"agentMode":"standard","modelSettings":[{"id":"m1","modelName":"A","enabled":true}],"totalContentLength":2}}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	frames := streamcodec.ParseFrames(rec.Body.String())
	var sawData, sawResponses bool
	for _, f := range frames {
		switch f.Tag {
		case streamcodec.TagData:
			sawData = true
			assert.Equal(t, "hello", f.Body)
		case streamcodec.TagModelResponses:
			sawResponses = true
		case streamcodec.TagError:
			t.Fatalf("unexpected ERROR frame: %s", f.Body)
		}
	}
	assert.True(t, sawData, "expected a DATA frame")
	assert.True(t, sawResponses, "expected a MODEL_RESPONSES frame")
}

func TestHandleChat_MalformedBody(t *testing.T) {
	orch := newTestOrchestrator(model.NewMockClient(), map[string][]string{"cerebras": {"KEY_OK"}})
	mux := NewServeMux(orch)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_MissingTrailingUserMessage(t *testing.T) {
	orch := newTestOrchestrator(model.NewMockClient(), map[string][]string{"cerebras": {"KEY_OK"}})
	mux := NewServeMux(orch)

	body := `{"messages":[{"role":"assistant","content":"hi"}],"data":{"agentMode":"standard","modelSettings":[]}}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_NoCerebrasCredentials(t *testing.T) {
	orch := newTestOrchestrator(model.NewMockClient(), map[string][]string{})
	mux := NewServeMux(orch)

	body := `{"messages":[{"role":"user","content":"hi"}],"data":{"agentMode":"standard","modelSettings":[]}}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleChat_AllFailedBecomesErrorFrame(t *testing.T) {
	client := model.NewMockClient()
	client.CallErrors["A/KEY_OK"] = []error{
		&model.ApiError{Status: 500}, &model.ApiError{Status: 500}, &model.ApiError{Status: 500},
	}
	orch := newTestOrchestrator(client, map[string][]string{"cerebras": {"KEY_OK"}})
	mux := NewServeMux(orch)

	body := `{"messages":[{"role":"user","content":"hi"}],"data":{"agentMode":"standard","modelSettings":[{"id":"m1","modelName":"A","enabled":true}]}}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	// The orchestrator has already committed to 200 by the time the step
	// fails; the failure must surface as an ERROR frame, not an HTTP status.
	require.Equal(t, http.StatusOK, rec.Code)
	frames := streamcodec.ParseFrames(rec.Body.String())
	var sawError bool
	for _, f := range frames {
		if f.Tag == streamcodec.TagError {
			sawError = true
		}
	}
	assert.True(t, sawError, "expected an ERROR frame")
}
