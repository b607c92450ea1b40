/*
Package lookup resolves batches of hostnames read from multiple input files,
using a two-stage pipeline of producers and consumers.

	input files ──▶ producers ──▶ queue.HostQueue ──▶ consumers ──▶ results log
	                    │
	                    └──▶ service-count log

Producers claim input files from a shared [WorkList], one at a time, and push
each whitespace-delimited hostname from a file into the bounded queue,
blocking while the queue is full. When no input files are left, a producer
logs how many files it has serviced and registers as finished with the queue.

Consumers pop hostnames off the queue, blocking while it is empty, resolve
them using a [resolve.Resolver], and append “hostname,address” lines to the
results log. A hostname failing to resolve gets logged with an empty (or
sentinel) address instead; there are no retries. Consumers stop only after
all producers have finished and the queue has been drained.

A [Pipeline] carries all state shared between its producers and consumers and
runs to completion exactly once. Results appear in no particular order: files
are claimed concurrently, and hostnames from different files interleave in
the queue.

# Usage

	p, err := lookup.New(lookup.Config{
	    Producers:   2,
	    Consumers:   3,
	    ResultsPath: "results.txt",
	    ServicePath: "serviced.txt",
	    Inputs:      []string{"names1.txt", "names2.txt"},
	}, resolve.NewSystem())
	stats, err := p.Run(context.Background())
*/
package lookup
