// Package executor implements the two retry-driven call primitives the step
// library is built on: ParallelExecutor (fan out over many ModelSpecs with
// per-task retry budgets and cross-task key-eviction coordination) and
// IntegrationExecutor (a single logical call with the same retry discipline,
// optionally streaming to a client sink). Both share the same round-based
// attempt loop (attempt.go) rather than duplicating the retry/eviction logic
// for each primitive.
package executor
