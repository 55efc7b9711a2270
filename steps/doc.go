// Package steps implements the step library: the atomic, composable units
// an agent mode's pipeline is built from (planning, parallel inference,
// critique, integration). Every step has signature
// func(*core.AgentContext) error — either it fully populates the outputs
// it is contracted to produce, or it returns an error and the orchestrator
// aborts the pipeline.
//
// Steps hold no state of their own; each constructor closes over the
// ParallelExecutor/IntegrationExecutor instances and fallback model name it
// needs, and returns a Step value the registry assembles into a mode's
// ordered pipeline.
package steps
