// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import (
	"sync/atomic"
	"time"
)

// Stats is a snapshot of the progress of a lookup run.
type Stats struct {
	FilesPending  int   // input files not yet claimed by any producer.
	FilesServiced int64 // input files read.
	FilesFailed   int64 // input files that could not be opened.
	Queued        int64 // hostnames read and queued.
	Truncated     int64 // hostnames that had to be truncated.
	Resolved      int64 // hostnames resolved into an address.
	Failed        int64 // hostnames failing to resolve.
	Reachable     int64 // resolved addresses passing the optional ping check.
	Unreachable   int64 // resolved addresses failing the optional ping check.
	AppendErrors  int64 // log lines lost due to log file errors.

	Producers int // producers still running.
	Consumers int // consumers still running.

	QueueLen       int
	QueueCap       int
	QueueHighWater int

	Elapsed time.Duration
}

// Done returns the number of hostnames that have been dealt with, whether
// successfully resolved or not.
func (s Stats) Done() int64 { return s.Resolved + s.Failed }

// counters are updated by the workers without any locking, so that the
// progress can be watched without getting into the way of the workers.
type counters struct {
	filesServiced atomic.Int64
	filesFailed   atomic.Int64
	queued        atomic.Int64
	truncated     atomic.Int64
	resolved      atomic.Int64
	failed        atomic.Int64
	reachable     atomic.Int64
	unreachable   atomic.Int64
	appendErrors  atomic.Int64
	producers     atomic.Int32
	consumers     atomic.Int32
	started       atomic.Int64 // unix nanoseconds
	stopped       atomic.Int64 // unix nanoseconds
}

// Stats returns a snapshot of the current progress of this pipeline.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		FilesPending:   p.work.Len(),
		FilesServiced:  p.counters.filesServiced.Load(),
		FilesFailed:    p.counters.filesFailed.Load(),
		Queued:         p.counters.queued.Load(),
		Truncated:      p.counters.truncated.Load(),
		Resolved:       p.counters.resolved.Load(),
		Failed:         p.counters.failed.Load(),
		Reachable:      p.counters.reachable.Load(),
		Unreachable:    p.counters.unreachable.Load(),
		AppendErrors:   p.counters.appendErrors.Load(),
		Producers:      int(p.counters.producers.Load()),
		Consumers:      int(p.counters.consumers.Load()),
		QueueLen:       p.queue.Len(),
		QueueCap:       p.queue.Cap(),
		QueueHighWater: p.queue.HighWater(),
	}
	if started := p.counters.started.Load(); started != 0 {
		end := time.Now().UnixNano()
		if stopped := p.counters.stopped.Load(); stopped != 0 {
			end = stopped
		}
		s.Elapsed = time.Duration(end - started)
	}
	return s
}
