// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/siemens/multilookup/dnsworker"
	"github.com/siemens/multilookup/lookup"
	"github.com/siemens/multilookup/mobynet"
	"github.com/siemens/multilookup/ping"
	"github.com/siemens/multilookup/resolve"

	"github.com/gosuri/uilive"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/log"
)

// LookupAndReport sets up the resolver as configured by the CLI flags, then
// runs the lookup pipeline to completion. While the pipeline runs, its
// progress is optionally rendered to w; a final summary is always rendered.
func LookupAndReport(ctx context.Context, w io.Writer, cfg lookup.Config) error {
	netnsref, err := networkNamespace(ctx)
	if err != nil {
		return err
	}
	resolver, stop, err := newResolver(ctx, netnsref, cfg.Consumers)
	if err != nil {
		return err
	}
	defer stop()

	var options []lookup.Option
	if *verify {
		pingopts := []ping.PingerOption{ping.InNetworkNamespace(netnsref)}
		if *unprivileged {
			pingopts = append(pingopts, ping.AsUnprivileged())
		}
		var verifier lookup.Verifier = ping.New(pingopts...)
		if *cache {
			verifier = ping.NewAddressCache(ping.New(pingopts...))
		}
		options = append(options, lookup.WithVerifier(verifier))
	}
	pipeline, err := lookup.New(cfg, resolver, options...)
	if err != nil {
		return err
	}

	// Render the progress in the background until the pipeline has run to
	// completion, then render the final state once more before handing over
	// to the summary.
	r := newRenderer(w)
	runDone := make(chan struct{})
	renderingDone := make(chan struct{})
	if *progress {
		go func() {
			// Flush explicitly only after each complete rendering, as
			// uilive's own background updating might catch a partially
			// rendered buffer.
			term := uilive.New()
			term.Out = w
			r.w = term
			r.spinner.Start(*spinnerInterval)
			defer func() {
				renderStats(term, r, pipeline.Stats())
				r.Stop()
				close(renderingDone)
			}()
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for {
				renderStats(term, r, pipeline.Stats())
				select {
				case <-ticker.C:
				case <-runDone:
					return
				}
			}
		}()
	} else {
		close(renderingDone)
	}

	stats, err := pipeline.Run(ctx)
	close(runDone)
	<-renderingDone
	r.w = w
	r.Summary(stats)
	r.Problems(pipeline.InputErrors())
	return err
}

// networkNamespace returns the filesystem path referencing the network
// namespace to resolve from, if any.
func networkNamespace(ctx context.Context) (string, error) {
	if *container == "" {
		return *netns, nil
	}
	moby, err := mobynet.NewClient(*dockerHost)
	if err != nil {
		return "", fmt.Errorf("cannot connect to the Docker daemon: %w", err)
	}
	defer moby.Close()
	netnsref, err := mobynet.NetworkNamespaceOf(ctx, moby, *container)
	if err != nil {
		return "", err
	}
	log.Debugf("resolving from inside container %s network namespace %s", *container, netnsref)
	return netnsref, nil
}

// newResolver returns the resolver to use, as well as a function to release
// the resolver's resources after use. Without an explicit DNS server, the
// system resolver is used, except when resolving inside a container which
// defaults to Docker's embedded DNS resolver.
func newResolver(ctx context.Context, netnsref string, consumers int) (resolve.Resolver, func(), error) {
	var resolver resolve.Resolver
	stop := func() {}
	addr := *server
	if addr == "" && *container != "" {
		addr = mobynet.EmbeddedDNS
	}
	if addr == "" {
		log.Debugf("using system resolver")
		resolver = resolve.NewSystem()
	} else {
		log.Debugf("using DNS server %s with %d connections", addr, consumers)
		pool, err := dnsworker.New(ctx, consumers, &dns.Client{}, addr,
			dnsworker.InNetworkNamespace(netnsref),
			dnsworker.WithTimeout(*timeout))
		if err != nil {
			return nil, nil, fmt.Errorf("cannot connect to DNS server: %w", err)
		}
		resolver = resolve.NewPooled(pool)
		stop = pool.StopWait
	}
	if *cache {
		resolver = resolve.NewCached(resolver)
	}
	return resolver, stop, nil
}

// renderStats renders (and flushes) the current pipeline statistics to the
// terminal.
func renderStats(term *uilive.Writer, r *renderer, stats lookup.Stats) {
	r.Render(stats)
	term.Flush()
}
