package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/apierr"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/orchestrator"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/streamcodec"
)

// NewServeMux wires orch onto POST /api/chat and returns a ready-to-serve
// mux. Handlers for health checks or static assets belong to the caller;
// this package owns only the streaming chat endpoint.
func NewServeMux(orch *orchestrator.Orchestrator) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", handleChat(orch))
	return mux
}

// handleChat parses the envelope and builds the KeyPools before any
// response byte is written, then hands off to Orchestrator.Run for the
// remaining steps. Once the stream is opened the handler never again sets
// an HTTP status code — a step failure after that point becomes an ERROR
// frame, not a 5xx.
func handleChat(orch *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var env orchestrator.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		ac, err := orch.Validate(r.Context(), env)
		if err != nil {
			writeValidationError(w, err)
			return
		}
		ac.RequestID = uuid.NewString()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Request-Id", ac.RequestID)
		w.WriteHeader(http.StatusOK)

		sink := streamcodec.NewWriter(w)
		orch.Run(ac, sink)
	}
}

// writeValidationError maps the two pre-stream error kinds onto their HTTP
// status codes. Anything else is a programming error and is reported as
// 500 without leaking internals.
func writeValidationError(w http.ResponseWriter, err error) {
	var badRequest *apierr.BadRequestError
	var configErr *apierr.ConfigError
	switch {
	case errors.As(err, &badRequest):
		http.Error(w, badRequest.Error(), http.StatusBadRequest)
	case errors.As(err, &configErr):
		http.Error(w, configErr.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
