// Package keypool holds the pool of API credentials and the rotation
// cursor that spreads outbound requests across them.
package keypool

import (
	"strings"
	"sync"
)

// Credential is one account's secret token for the remote API.
type Credential string

// Pool is an ordered set of credentials with a rotation cursor marking
// the next credential to try first. The cursor advances past a
// credential on both success and failure: failures are assumed
// transient (provider-side quota or rate limiting), so a failing
// credential is skipped for the next call but never removed.
type Pool struct {
	mu     sync.Mutex
	keys   []Credential
	cursor int
}

// New builds a pool from an ordered credential list. Duplicates are
// dropped keeping the first occurrence; insertion order defines the
// initial rotation order.
func New(keys []Credential) *Pool {
	seen := make(map[Credential]struct{}, len(keys))
	unique := make([]Credential, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}
	return &Pool{keys: unique}
}

// Parse builds a pool from a comma-separated credential list, trimming
// whitespace and skipping blanks.
func Parse(raw string) *Pool {
	var keys []Credential
	for _, part := range strings.Split(raw, ",") {
		if k := strings.TrimSpace(part); k != "" {
			keys = append(keys, Credential(k))
		}
	}
	return New(keys)
}

// Len returns the number of credentials in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// NextOrder returns the full pool starting from the rotation cursor,
// wrapping around. The result is a snapshot taken under the lock, not
// a live view; an empty pool yields an empty slice and callers must
// treat that as a configuration error, not retry.
func (p *Pool) NextOrder() []Credential {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.keys)
	if n == 0 {
		return nil
	}
	order := make([]Credential, 0, n)
	for i := 0; i < n; i++ {
		order = append(order, p.keys[(p.cursor+i)%n])
	}
	return order
}

// MarkSuccess moves the cursor to the position after the used
// credential so the next call starts with a fresh one.
func (p *Pool) MarkSuccess(c Credential) {
	p.advancePast(c)
}

// MarkFailure moves the cursor to the position after the failing
// credential. Same effect as success: the pool only spreads load, it
// does not penalize beyond moving on.
func (p *Pool) MarkFailure(c Credential) {
	p.advancePast(c)
}

func (p *Pool) advancePast(c Credential) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.keys)
	if n == 0 {
		return
	}
	for i, k := range p.keys {
		if k == c {
			p.cursor = (i + 1) % n
			return
		}
	}
}
