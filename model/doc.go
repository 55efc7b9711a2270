// Package model defines the provider-agnostic Client abstraction used by the
// parallel and integration executors to call backend LLM providers.
//
// Core goals:
//   - Unify buffered and token-streaming generation behind a single interface
//   - Keep the call shape minimal: one credential, one ModelSpec, one call
//   - Surface transport/provider failures uniformly as ApiError
//   - Facilitate lightweight mocking for tests (MockClient)
//
// Concrete providers (model/cerebras, model/anthropic) implement Client so
// the executor package remains decoupled from vendor SDKs.
package model
