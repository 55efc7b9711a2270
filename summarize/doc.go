// Package summarize implements the summarisation pre-step: when a
// request's history grows past either threshold, the bulk of it is
// collapsed into one synthetic system message via a single integrator call,
// leaving the trailing user message untouched. Summarisation is best-effort
// — a failed summarisation call is logged and the pipeline proceeds on the
// uncompressed history exactly as received.
package summarize
