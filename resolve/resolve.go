// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/siemens/multilookup/dnsworker"
)

// ErrNoAddress is returned when a hostname resolves, but without any address.
var ErrNoAddress = errors.New("no address")

// Resolver resolves a hostname into a single IP address in textual form.
// Failing to resolve a hostname is a perfectly normal outcome and reported as
// an error. Resolve might block for a long time and must be safe for
// concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, hostname string) (string, error)
}

// Func adapts an ordinary function into a [Resolver].
type Func func(ctx context.Context, hostname string) (string, error)

// Resolve calls f(ctx, hostname).
func (f Func) Resolve(ctx context.Context, hostname string) (string, error) {
	return f(ctx, hostname)
}

// System resolves hostnames using the system's resolver configuration, taking
// also /etc/hosts into account. If multiple addresses are found, IPv4 addresses
// take precedence over IPv6 addresses.
type System struct {
	resolver *net.Resolver
}

var _ Resolver = (*System)(nil)

// NewSystem returns a new System resolver, optionally based on the specified
// net.Resolver instead of net.DefaultResolver.
func NewSystem(resolver ...*net.Resolver) *System {
	s := &System{resolver: net.DefaultResolver}
	if len(resolver) > 0 && resolver[0] != nil {
		s.resolver = resolver[0]
	}
	return s
}

// Resolve the specified hostname.
func (s *System) Resolve(ctx context.Context, hostname string) (string, error) {
	ipaddrs, err := s.resolver.LookupIPAddr(ctx, hostname)
	if err != nil {
		return "", err
	}
	addrs := make([]string, 0, len(ipaddrs))
	for _, ipaddr := range ipaddrs {
		addrs = append(addrs, ipaddr.IP.String())
	}
	return preferIPv4(hostname, addrs)
}

// Pooled resolves hostnames by querying a specific DNS server through a
// [dnsworker.DnsPool]. If multiple addresses are found, IPv4 addresses take
// precedence over IPv6 addresses.
type Pooled struct {
	pool *dnsworker.DnsPool
}

var _ Resolver = (*Pooled)(nil)

// NewPooled returns a new Pooled resolver using the specified DNS pool.
func NewPooled(pool *dnsworker.DnsPool) *Pooled {
	return &Pooled{pool: pool}
}

// Resolve the specified hostname.
func (p *Pooled) Resolve(ctx context.Context, hostname string) (string, error) {
	addrs, err := p.pool.Lookup(ctx, hostname)
	if err != nil {
		return "", err
	}
	return preferIPv4(hostname, addrs)
}

// preferIPv4 returns the first IPv4 address from the list, or otherwise the
// first address at all.
func preferIPv4(hostname string, addrs []string) (string, error) {
	if len(addrs) == 0 {
		return "", fmt.Errorf("cannot resolve %q: %w", hostname, ErrNoAddress)
	}
	for _, addr := range addrs {
		if ip := net.ParseIP(addr); ip != nil && ip.To4() != nil {
			return addr, nil
		}
	}
	return addrs[0], nil
}
