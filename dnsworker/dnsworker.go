// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/log"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// DnsPool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address.
type DnsPool struct {
	netns   relations.Relation // network namespace to query from, or nil.
	dnsclnt *dns.Client
	addr    string
	timeout time.Duration // per query, or zero for the client's defaults.
	workers *workerpool.WorkerPool
	mu      sync.Mutex // protects the pool of DNS connections
	free    []*dns.Conn
}

// DnsPoolOption can be passed to New when creating new [DnsPool] objects.
type DnsPoolOption func(*DnsPool)

// New returns a pool of the specified size of DNS client connections, with each
// connection using the specified context and talking to the same DNS resolver
// address.
//
// DNS tasks are submitted using [DnsPool.Submit] in form of task functions
// receiving a concrete [dns.Conn].
//
// The passed context is used for creating (dialing) the DNS client connections
// only. It is not directly passed to the submitted DNS tasks, so task
// submitters are themselves responsible for capturing the necessary context in
// their task function closure.
//
// To operate a DnsPool in a network namespace different to that of the OS-level
// thread of the caller specify the [InNetworkNamespace] option and pass it a
// filesystem path that must reference a network namespace (such as
// "/proc/666/ns/net").
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string, options ...DnsPoolOption) (*DnsPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("DnsPool: size must be at least 1, got: %d", size)
	}
	dnspool := &DnsPool{
		dnsclnt: dnsclnt,
		addr:    addr,
	}
	for _, opt := range options {
		opt(dnspool)
	}
	if dnspool.timeout > 0 {
		// Don't touch the caller's client, but work on our own copy.
		clnt := *dnsclnt
		clnt.Timeout = dnspool.timeout
		dnspool.dnsclnt = &clnt
	}
	free, err := dnspool.dial(ctx, size)
	if err != nil {
		return nil, err
	}
	dnspool.free = free
	dnspool.workers = workerpool.New(size)
	return dnspool, nil
}

// InNetworkNamespace optionally runs a DnsPool inside the network namespace
// referenced by the specified filesystem path. An empty path leaves the pool
// in the caller's network namespace.
func InNetworkNamespace(netnsref string) DnsPoolOption {
	return func(p *DnsPool) {
		if netnsref == "" {
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithTimeout limits each individual DNS query exchange to the specified
// duration.
func WithTimeout(timeout time.Duration) DnsPoolOption {
	return func(p *DnsPool) {
		p.timeout = timeout
	}
}

// dial creates the specified number of DNS client connections, switching into
// the pool's network namespace if necessary.
func (p *DnsPool) dial(ctx context.Context, count int) ([]*dns.Conn, error) {
	conns := make([]*dns.Conn, 0, count)
	dial := func() interface{} {
		for i := 0; i < count; i++ {
			conn, err := p.dnsclnt.DialContext(ctx, p.addr)
			if err != nil {
				// Immediately release all connections created so far.
				for _, conn := range conns {
					conn.Close()
				}
				return err
			}
			conns = append(conns, conn)
		}
		return nil
	}
	var err error
	var dialerr interface{}
	if p.netns != nil {
		dialerr, err = ops.Execute(dial, p.netns)
	} else {
		dialerr = dial()
	}
	if err != nil {
		return nil, err
	}
	if dialerr != nil {
		return nil, dialerr.(error)
	}
	return conns, nil
}

// Submit a task to the DNS client connection pool, where it gets enqueued to be
// executed on an available DNS client connection. The task returns false in
// case its connection is broken and needs to be replaced.
func (p *DnsPool) Submit(task func(conn *dns.Conn) (ok bool)) {
	p.workers.Submit(func() { p.task(task) })
}

// ResolveName is a convenience method for submitting A/AAAA queries and
// gathering the results. The results (resolved IP addresses in textual format,
// IPv4 addresses first) or an error if resolution failed is passed to the
// specified callback function fn.
//
// fn is called only once after completing both A and AAAA queries, so fn always
// gets to see all IP addresses from all IP families to see (if any).
//
// Please note that when the passed context is cancelled this will cancel all
// in-flight as well as scheduled name resolution jobs.
func (p *DnsPool) ResolveName(ctx context.Context, name string, fn func([]string, error)) {
	p.Submit(func(conn *dns.Conn) bool {
		var addrs []string
		var err error
		defer func() { fn(addrs, err) }() // ...ensure triggering the result callback on our way out

		fqdn := dns.Fqdn(name)
		for _, addrType := range []uint16{dns.TypeA, dns.TypeAAAA} {
			// don't try to resolve the name if the context has been cancelled;
			// trigger the callback immediately with the context error.
			select {
			case <-ctx.Done():
				err = ctx.Err()
				return true
			default:
			}

			msg := dns.Msg{
				MsgHdr: dns.MsgHdr{Id: dns.Id()},
			}
			msg.SetQuestion(fqdn, addrType)
			var r *dns.Msg
			r, _, err = p.dnsclnt.ExchangeWithConn(&msg, conn)
			if err != nil {
				err = fmt.Errorf("ResolveName: query for %q failed: %w", name, err)
				return false
			}
			if r.Rcode == dns.RcodeNameError {
				// No such name, so there's no point in asking for AAAA
				// after A.
				err = fmt.Errorf("ResolveName: no such name %q", name)
				return true
			}
			if r.Rcode != dns.RcodeSuccess {
				err = fmt.Errorf("ResolveName: query for %q failed with %s",
					name, dns.RcodeToString[r.Rcode])
				return true
			}
			for _, rr := range r.Answer {
				if addrRR, ok := rr.(*dns.A); ok {
					addrs = append(addrs, addrRR.A.String())
					continue
				}
				if addrRR, ok := rr.(*dns.AAAA); ok {
					addrs = append(addrs, addrRR.AAAA.String())
				}
			}
		}
		// If we neither got A nor AAAA answers then we consider this to be an
		// error. This ensures to send an error to the callback together with
		// the nil list of resolved IP addresses.
		if len(addrs) == 0 {
			err = fmt.Errorf("ResolveName: query for %q yields no answers", name)
		}
		return true
	})
}

// Lookup resolves the specified name into its IP addresses, blocking until the
// lookup has finished.
func (p *DnsPool) Lookup(ctx context.Context, name string) ([]string, error) {
	type result struct {
		addrs []string
		err   error
	}
	ch := make(chan result, 1)
	p.ResolveName(ctx, name, func(addrs []string, err error) {
		ch <- result{addrs: addrs, err: err}
	})
	res := <-ch
	return res.addrs, res.err
}

// task grabs the next free DNS client and passes it to the specified function.
// After the function returns, the connection is put back into the free list,
// after replacing it with a freshly dialed one if the function reported it to
// be broken.
func (p *DnsPool) task(task func(conn *dns.Conn) bool) {
	// pop off a free DNS client connection,
	// https://ueokande.github.io/go-slice-tricks/,
	p.mu.Lock()
	if len(p.free) == 0 {
		panic("no free DNS client connection available")
	}
	last := len(p.free) - 1
	conn := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	// run the task with its assigned DNS client connection...
	if !task(conn) {
		if conns, err := p.dial(context.Background(), 1); err == nil {
			conn.Close()
			conn = conns[0]
		} else {
			// Keep the old connection, as otherwise the pool would shrink.
			log.Warnf("cannot redial DNS server %s: %s", p.addr, err.Error())
		}
	}
	// ...and push the DNS client connection back into the free list.
	p.mu.Lock()
	p.free = append(p.free, conn)
	p.mu.Unlock()
}

// StopWait waits for all enqueued address lookup or generic DNS request tasks
// to finish, and then shuts down the pool.
func (p *DnsPool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.free {
		conn.Close()
	}
	p.free = nil
}
