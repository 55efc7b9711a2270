// Package config loads process-wide startup configuration: the HTTP listen
// address and the tunable thresholds that otherwise default to fixed
// constants but which an operator should still be able to override without
// a recompile.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines tuning parameters for the orchestration server's
// operational behavior.
//
// Additional concerns such as per-provider timeouts or metrics collection
// should be configured via functional options on the affected component
// rather than expanding this struct.
type Config struct {
	// ListenAddr is the address httpapi's server binds to.
	ListenAddr string `yaml:"listenAddr"`

	// MessageThreshold and CharThreshold gate the summarisation pre-step.
	// Default to 10 / 30000; overridable here for operators who want to
	// tune them without a recompile.
	MessageThreshold int `yaml:"messageThreshold"`
	CharThreshold    int `yaml:"charThreshold"`

	// MinRetry floors every task's retry budget, everywhere, at 3 by
	// default; kept configurable for the same reason as the summarisation
	// thresholds.
	MinRetry int `yaml:"minRetry"`

	// DefaultSummarizerModel and DefaultIntegratorModel name the model
	// used when the request envelope's appSettings omits
	// summarizerModel/integratorModel.
	DefaultSummarizerModel string `yaml:"defaultSummarizerModel"`
	DefaultIntegratorModel string `yaml:"defaultIntegratorModel"`
}

// DefaultConfig provides production-ready default configuration values.
var DefaultConfig = Config{
	ListenAddr:             ":8080",
	MessageThreshold:       10,
	CharThreshold:          30000,
	MinRetry:               3,
	DefaultSummarizerModel: "llama3.1-8b",
	DefaultIntegratorModel: "llama3.3-70b",
}

// Load reads a YAML file at path and overlays its fields onto DefaultConfig.
// A missing path is not an error — callers use it to mean "no override
// file configured".
func Load(path string) (*Config, error) {
	cfg := DefaultConfig

	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnvKeys splits a comma-separated credential list (as read from
// CEREBRAS_API_KEYS / ANTHROPIC_API_KEYS), trimming whitespace and
// discarding empty entries.
func EnvKeys(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
