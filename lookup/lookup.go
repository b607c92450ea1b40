// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siemens/multilookup/applog"
	"github.com/siemens/multilookup/queue"
	"github.com/siemens/multilookup/resolve"
	"github.com/siemens/multilookup/types"

	"github.com/thediveo/lxkns/log"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadyRun is returned when trying to run the same pipeline twice.
var ErrAlreadyRun = errors.New("pipeline has already been run")

// Verifier checks the address of a resolved hostname, returning the
// resolution with its quality updated.
type Verifier interface {
	CheckResolution(ctx context.Context, res types.Resolution) types.Resolution
}

// Pipeline reads hostnames from a set of input files and resolves them, using
// a fixed number of producers and consumers connected by a bounded queue. A
// Pipeline holds all the state shared between its producers and consumers; it
// can be run only once.
type Pipeline struct {
	cfg      Config
	queue    *queue.HostQueue
	work     *WorkList
	results  *applog.Log
	services *applog.Log
	resolver resolve.Resolver
	verifier Verifier
	counters counters
	ran      atomic.Bool

	mu        sync.Mutex
	inputErrs []error // problems reading input files.
}

// Option can be passed to New when creating new [Pipeline] objects.
type Option func(*Pipeline)

// WithVerifier checks the reachability of resolved addresses using the
// specified verifier, such as a [github.com/siemens/multilookup/ping.Pinger].
// The results log then contains an additional third field with the address
// quality.
func WithVerifier(v Verifier) Option {
	return func(p *Pipeline) {
		p.verifier = v
	}
}

// New returns a new Pipeline for the specified configuration, resolving
// hostnames using the specified resolver.
func New(cfg Config, resolver resolve.Resolver, options ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		return nil, fmt.Errorf("%w: missing resolver", ErrConfig)
	}
	p := &Pipeline{
		cfg:      cfg,
		queue:    queue.New(cfg.capacity(), cfg.Producers, queue.WithOrder(cfg.Order)),
		work:     NewWorkList(cfg.Inputs),
		results:  applog.New(cfg.ResultsPath),
		services: applog.New(cfg.ServicePath),
		resolver: resolver,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// Run the pipeline to completion: all input files read and all hostnames
// read resolved and logged. Run then returns the final statistics.
//
// The context is passed on to the resolver (and verifier) only; once it is
// done, all remaining hostnames simply fail to resolve, but are still logged.
//
// Failing to open input files or to append to the logs is reported, but does
// not abort the run.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	if !p.ran.CompareAndSwap(false, true) {
		return p.Stats(), ErrAlreadyRun
	}
	if p.cfg.Truncate {
		for _, l := range []*applog.Log{p.results, p.services} {
			if err := l.Truncate(); err != nil {
				log.Errorf("%s", err.Error())
				p.counters.appendErrors.Add(1)
			}
		}
	}
	p.counters.started.Store(time.Now().UnixNano())
	log.Infof("starting %d producers and %d consumers on %d input files, queue capacity %d",
		p.cfg.Producers, p.cfg.Consumers, len(p.cfg.Inputs), p.queue.Cap())

	var producers, consumers errgroup.Group
	for id := 1; id <= p.cfg.Producers; id++ {
		id := id
		producers.Go(func() error { return p.produce(id) })
	}
	for id := 1; id <= p.cfg.Consumers; id++ {
		id := id
		consumers.Go(func() error { return p.consume(ctx, id) })
	}
	err := producers.Wait()
	if cerr := consumers.Wait(); err == nil {
		err = cerr
	}

	p.counters.stopped.Store(time.Now().UnixNano())
	stats := p.Stats()
	log.Infof("resolved %d and failed %d hostnames from %d input files in %s",
		stats.Resolved, stats.Failed, stats.FilesServiced, stats.Elapsed)
	return stats, err
}

// InputErrors returns the problems encountered so far with opening or reading
// input files, in no particular order.
func (p *Pipeline) InputErrors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.inputErrs...)
}

func (p *Pipeline) inputError(err error) {
	p.mu.Lock()
	p.inputErrs = append(p.inputErrs, err)
	p.mu.Unlock()
}
