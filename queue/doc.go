/*
Package queue implements the bounded hostname buffer sitting between the
producers reading input files and the consumers resolving hostnames.

A [HostQueue] blocks producers while it is full and consumers while it is
empty, using one condition per role so that freeing a single slot wakes a
single producer and queueing a single hostname wakes a single consumer.

# Termination

The queue also carries the completion counter of its producers. Whether a
consumer may stop is decided by the single predicate “all producers finished
and queue empty”, which is only ever evaluated while holding the queue lock.
As the last producer registers its completion under that very lock, a consumer
cannot miss a hostname pushed just before the end, nor can it sleep forever
on an empty queue that will never be refilled.

	producers ──Push──▶ [ HostQueue ] ──Pop──▶ consumers
	          ProducerDone          (“", false) once terminated

# Ordering

Pop order is FIFO by default; [WithOrder](LIFO) instead pops the most recently
pushed hostname first. Either way, with multiple producers and consumers the
order of results never matches the order of hostnames in the input files.
*/
package queue
