// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"sync"

	"github.com/siemens/multilookup/types"
)

// Checker checks an IP address for reachability.
type Checker interface {
	Check(ctx context.Context, addr string) (types.Quality, error)
}

var _ Checker = (*Pinger)(nil)

// AddressCache caches reachability verdicts per IP address so that different
// hostnames resolving to the same address cause only a single check. Callers
// checking an address while a check for it is already in progress wait for
// that check's verdict instead of starting their own.
type AddressCache struct {
	checker Checker
	mu      sync.Mutex
	m       map[string]*verdict // IP address -> (pending) verdict
}

// verdict is the outcome of checking an address; done gets closed as soon as
// q and err are final.
type verdict struct {
	done chan struct{}
	q    types.Quality
	err  error
}

var _ Checker = (*AddressCache)(nil)

// NewAddressCache returns a new AddressCache object, carrying out the actual
// address checks using the specified checker, such as a [Pinger].
func NewAddressCache(checker Checker) *AddressCache {
	return &AddressCache{
		checker: checker,
		m:       map[string]*verdict{},
	}
}

// Check returns the reachability of the specified address, checking it only if
// it hasn't been checked before. Checks aborted because of their context being
// done are not cached.
func (c *AddressCache) Check(ctx context.Context, addr string) (types.Quality, error) {
	c.mu.Lock()
	v, ok := c.m[addr]
	if !ok {
		v = &verdict{done: make(chan struct{})}
		c.m[addr] = v
	}
	c.mu.Unlock()
	if ok {
		select {
		case <-v.done:
			return v.q, v.err
		case <-ctx.Done():
			return types.Unreachable, ctx.Err()
		}
	}
	v.q, v.err = c.checker.Check(ctx, addr)
	if ctx.Err() != nil {
		// Don't poison the cache with an incomplete check; waiters still get
		// to see this verdict, though.
		c.mu.Lock()
		delete(c.m, addr)
		c.mu.Unlock()
	}
	close(v.done)
	return v.q, v.err
}

// CheckResolution checks the address of a successfully resolved hostname and
// returns the resolution with its quality updated accordingly. Failed
// resolutions are returned unchanged.
func (c *AddressCache) CheckResolution(ctx context.Context, res types.Resolution) types.Resolution {
	return checkResolution(ctx, c, res)
}

// Len returns the number of addresses checked or being checked.
func (c *AddressCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// checkResolution checks the address of res using the specified checker,
// unless the hostname couldn't be resolved.
func checkResolution(ctx context.Context, checker Checker, res types.Resolution) types.Resolution {
	if !res.Quality.HasAddress() {
		return res
	}
	q, err := checker.Check(ctx, res.Address)
	return res.WithQuality(q, err)
}
