// Package keypool implements a thread-safe, rotating pool of provider
// credentials with classified eviction.
//
// A Pool is constructed once per request from the operator-supplied
// credential list, shuffled to spread load bias across requests, and then
// consumed round-robin by ParallelExecutor and IntegrationExecutor. A key
// that fails with a permanent, key-bad status (401/403) is evicted for the
// remainder of the request; eviction is monotonic — an evicted key never
// re-enters the pool.
package keypool
