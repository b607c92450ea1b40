// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolve

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cached wraps a [Resolver] in order to avoid looking up the same hostname
// multiple times: concurrent lookups of the same hostname are coalesced into a
// single lookup, and later lookups are directly served from the cache. Both
// successful and failed lookups get cached, except for lookups that failed
// because of their context getting done.
//
// Hostnames are considered to be the same regardless of case and any trailing
// dot.
type Cached struct {
	resolver Resolver
	group    singleflight.Group
	mu       sync.Mutex
	m        map[string]cachedResult // normalized hostname -> address or error
}

type cachedResult struct {
	addr string
	err  error
}

var _ Resolver = (*Cached)(nil)

// NewCached returns a new caching resolver using the specified resolver for
// the actual lookups.
func NewCached(resolver Resolver) *Cached {
	return &Cached{
		resolver: resolver,
		m:        map[string]cachedResult{},
	}
}

// Resolve the specified hostname, unless it has been resolved before.
func (c *Cached) Resolve(ctx context.Context, hostname string) (string, error) {
	key := strings.ToLower(strings.TrimSuffix(hostname, "."))
	c.mu.Lock()
	res, ok := c.m[key]
	c.mu.Unlock()
	if ok {
		return res.addr, res.err
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		addr, err := c.resolver.Resolve(ctx, hostname)
		if err == nil || ctx.Err() == nil {
			c.mu.Lock()
			c.m[key] = cachedResult{addr: addr, err: err}
			c.mu.Unlock()
		}
		return addr, err
	})
	return v.(string), err
}

// Len returns the number of cached hostnames.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
