// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import (
	"context"

	"github.com/siemens/multilookup/types"

	"github.com/thediveo/lxkns/log"
)

// consume runs a single consumer: it takes hostnames off the queue, resolves
// them, and logs the results, until the queue has been drained for good.
//
// Neither the resolution nor the log append happen while holding the queue
// lock; a slow lookup thus only stalls this particular consumer.
func (p *Pipeline) consume(ctx context.Context, id int) error {
	p.counters.consumers.Add(1)
	defer p.counters.consumers.Add(-1)

	for {
		host, ok := p.queue.Pop()
		if !ok {
			log.Debugf("consumer-%d: no more hostnames", id)
			return nil
		}
		res := p.resolve(ctx, id, host)
		if err := p.results.Append(res.Line(p.cfg.Sentinel, p.verifier != nil)); err != nil {
			log.Errorf("consumer-%d: %s", id, err.Error())
			p.counters.appendErrors.Add(1)
		}
	}
}

// resolve looks up a single hostname and, if requested, checks the resolved
// address for reachability. Failures never get retried.
func (p *Pipeline) resolve(ctx context.Context, id int, host string) types.Resolution {
	res := types.NewResolution(host)
	addr, err := p.resolver.Resolve(ctx, host)
	if err != nil {
		log.Debugf("consumer-%d: failed to resolve %s: %s", id, host, err.Error())
		p.counters.failed.Add(1)
		return res.WithFailure(err)
	}
	p.counters.resolved.Add(1)
	res = res.WithAddress(addr)
	if p.verifier == nil {
		return res
	}
	res = p.verifier.CheckResolution(ctx, res)
	switch res.Quality {
	case types.Reachable:
		p.counters.reachable.Add(1)
	case types.Unreachable:
		log.Debugf("consumer-%d: %s at %s is unreachable: %v", id, host, addr, res.Err())
		p.counters.unreachable.Add(1)
	}
	return res
}
