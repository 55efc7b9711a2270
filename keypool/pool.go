package keypool

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/sella-roum/cerebras-parallel-integrated-chat/apierr"
)

// ErrPoolExhausted is returned by Next when the pool has no credentials left.
var ErrPoolExhausted = fmt.Errorf("keypool: exhausted")

// Pool is a round-robin rotating set of credentials. All methods are safe
// for concurrent use; expected contention is low since a single Next/Evict
// call is dominated by the latency of the model call it guards, not by lock
// hold time.
type Pool struct {
	mu        sync.Mutex
	available []string
	cursor    int
}

// New constructs a Pool from a non-empty credential list. The input is
// copied and unbiased-shuffled (Fisher–Yates) so that which key serves the
// first call varies across requests instead of always favouring index 0.
func New(keys []string) (*Pool, error) {
	if len(keys) == 0 {
		return nil, &apierr.ConfigError{Reason: "credential pool must not be empty"}
	}

	shuffled := make([]string, len(keys))
	copy(shuffled, keys)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return &Pool{available: shuffled}, nil
}

// Next returns the credential at cursor and advances cursor modulo the
// current pool length. Fails with ErrPoolExhausted once the pool is empty.
func (p *Pool) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.available) == 0 {
		return "", ErrPoolExhausted
	}

	key := p.available[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.available)

	return key, nil
}

// Evict removes the first occurrence of key, if present, and clamps cursor
// into the shrunk range (0 if the pool becomes empty). Idempotent — evicting
// an already-absent key is a no-op.
func (p *Pool) Evict(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := -1
	for i, k := range p.available {
		if k == key {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	p.available = append(p.available[:idx], p.available[idx+1:]...)
	if len(p.available) == 0 {
		p.cursor = 0
	} else {
		p.cursor %= len(p.available)
	}
}

// Count returns the number of credentials currently available.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.available)
}
