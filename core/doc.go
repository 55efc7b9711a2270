// Package core defines the shared domain types threaded through a single
// chat request: Message, ModelSpec, ModelReply, AppConfig, and the mutable
// AgentContext that steps read from and write to as a pipeline runs.
package core
