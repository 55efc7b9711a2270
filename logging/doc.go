// Package logging provides a minimal logging interface and adapters used
// throughout the orchestration engine.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error); the orchestrator, executors and summariser take a
// *StructuredLogger, which offers the same methods plus domain helpers.
// This package includes:
//
//   - Logger interface for dependency injection
//   - StructuredLogger adapter wrapping Go's structured logging (log/slog)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	orch := &orchestrator.Orchestrator{Logger: logger /* , ... */}
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
