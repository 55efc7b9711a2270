// Package orchestrator implements the request entry point: it validates
// the request envelope and builds a fresh per-request KeyPool set
// before any response byte is written (so transport-level failures surface
// as ordinary HTTP status codes), then drives summarisation, the chosen
// mode's step sequence, and the final response frames once the stream is
// open.
package orchestrator
