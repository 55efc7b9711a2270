package orchestrator

import (
	"github.com/sella-roum/cerebras-parallel-integrated-chat/apierr"
	"github.com/sella-roum/cerebras-parallel-integrated-chat/core"
)

// modelSettingWire mirrors one entry of the request envelope's
// modelSettings array. Its maxTokens field maps onto
// core.ModelSpec.MaxOutputTokens — the wire name and the domain name differ
// because the wire format predates this field's rename.
type modelSettingWire struct {
	ID          string  `json:"id"`
	ModelName   string  `json:"modelName"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	Enabled     bool    `json:"enabled"`
	Role        string  `json:"role,omitempty"`
	Provider    string  `json:"provider,omitempty"`
}

func (w modelSettingWire) toSpec() core.ModelSpec {
	return core.ModelSpec{
		ID:              w.ID,
		ModelName:       w.ModelName,
		Temperature:     w.Temperature,
		MaxOutputTokens: w.MaxTokens,
		Enabled:         w.Enabled,
		Role:            w.Role,
		Provider:        w.Provider,
	}
}

// modelConfigWire mirrors one entry of appSettings (summarizerModel /
// integratorModel).
type modelConfigWire struct {
	ModelName   string  `json:"modelName"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

func (w *modelConfigWire) toConfig() *core.ModelConfig {
	if w == nil {
		return nil
	}
	return &core.ModelConfig{ModelName: w.ModelName, Temperature: w.Temperature, MaxOutputTokens: w.MaxTokens}
}

type appSettingsWire struct {
	SummarizerModel *modelConfigWire `json:"summarizerModel,omitempty"`
	IntegratorModel *modelConfigWire `json:"integratorModel,omitempty"`
}

type envelopeData struct {
	AgentMode          string             `json:"agentMode"`
	SystemPrompt       string             `json:"systemPrompt,omitempty"`
	ModelSettings      []modelSettingWire `json:"modelSettings"`
	AppSettings        appSettingsWire    `json:"appSettings"`
	TotalContentLength int                `json:"totalContentLength"`
}

// Envelope is the decoded request body. httpapi unmarshals the raw JSON
// request into one of these before calling Validate.
type Envelope struct {
	Messages []core.Message `json:"messages"`
	Data     envelopeData   `json:"data"`
}

// enabledModels returns only the entries with Enabled == true, preserving
// input order — every fan-out step operates on this, never the full
// modelSettings list.
func (e Envelope) enabledModels() []core.ModelSpec {
	var out []core.ModelSpec
	for _, w := range e.Data.ModelSettings {
		if w.Enabled {
			out = append(out, w.toSpec())
		}
	}
	return out
}

// validate enforces invariant 2: messages must be non-empty and end with a
// role=user entry at the moment of any inference step, checked once at the
// request boundary before any step runs.
func (e Envelope) validate() error {
	if len(e.Messages) == 0 {
		return &apierr.BadRequestError{Reason: "messages must be a non-empty ordered sequence"}
	}
	if last := e.Messages[len(e.Messages)-1]; last.Role != "user" {
		return &apierr.BadRequestError{Reason: "messages must end with a user message"}
	}
	return nil
}
