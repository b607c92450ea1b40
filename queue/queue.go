// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package queue

import (
	"errors"
	"sync"

	"github.com/gammazero/deque"
)

// DefaultCapacity is the default number of hostnames a HostQueue can hold.
const DefaultCapacity = 15

// ErrClosed is returned when pushing to a queue whose producers have all
// already been registered as finished.
var ErrClosed = errors.New("queue: all producers already finished")

// Order determines which end of the queue Pop takes hostnames from.
type Order int

// The supported pop orders.
const (
	FIFO Order = iota // oldest hostname first.
	LIFO              // most recently pushed hostname first.
)

// String returns the clear-text representation of an Order value.
func (o Order) String() string {
	if o == LIFO {
		return "lifo"
	}
	return "fifo"
}

// HostQueue is a bounded, blocking buffer of hostnames shared by a fixed set of
// producers and consumers. It also tracks how many of its producers have
// finished, so that consumers can tell “empty for now” apart from “empty for
// good”.
type HostQueue struct {
	mu        sync.Mutex // guards everything below, including the completion counter.
	room      *sync.Cond // queue has room; producers wait here.
	item      *sync.Cond // queue has an item; consumers wait here.
	hosts     *deque.Deque[string]
	capacity  int
	order     Order
	producers int // number of producers feeding this queue.
	finished  int // completion counter: producers that have finished.
	highwater int // largest size ever observed.
}

// Option can be passed to New when creating new [HostQueue] objects.
type Option func(*HostQueue)

// New returns a new HostQueue holding at most capacity hostnames, fed by the
// specified number of producers. A capacity of less than one is raised to one.
func New(capacity int, producers int, options ...Option) *HostQueue {
	if capacity < 1 {
		capacity = 1
	}
	q := &HostQueue{
		hosts:     deque.New[string](capacity),
		capacity:  capacity,
		producers: producers,
	}
	q.room = sync.NewCond(&q.mu)
	q.item = sync.NewCond(&q.mu)
	for _, opt := range options {
		opt(q)
	}
	return q
}

// WithOrder sets the order in which Pop returns hostnames.
func WithOrder(order Order) Option {
	return func(q *HostQueue) {
		q.order = order
	}
}

// Push adds a hostname to the queue, blocking the caller as long as the queue
// is full. It then wakes up at most one consumer waiting for an item.
func (q *HostQueue) Push(host string) error {
	q.mu.Lock()
	for q.hosts.Len() == q.capacity && !q.closed() {
		q.room.Wait()
	}
	if q.closed() {
		q.mu.Unlock()
		return ErrClosed
	}
	q.hosts.PushBack(host)
	if n := q.hosts.Len(); n > q.highwater {
		q.highwater = n
	}
	q.mu.Unlock()
	q.item.Signal()
	return nil
}

// Pop removes a hostname from the queue, blocking the caller as long as the
// queue is empty but producers are still around. Pop returns false once all
// producers have finished and the queue has been drained; the caller then
// must not call Pop again expecting any other outcome. Otherwise, Pop wakes
// up at most one producer waiting for room.
func (q *HostQueue) Pop() (string, bool) {
	q.mu.Lock()
	for q.hosts.Len() == 0 {
		if q.finished >= q.producers {
			q.mu.Unlock()
			return "", false
		}
		q.item.Wait()
	}
	var host string
	if q.order == LIFO {
		host = q.hosts.PopBack()
	} else {
		host = q.hosts.PopFront()
	}
	q.mu.Unlock()
	q.room.Signal()
	return host, true
}

// ProducerDone registers one more producer as having finished. When the last
// producer finishes, all consumers blocked on an empty queue get woken up so
// that they can see that no more hostnames will ever arrive.
//
// ProducerDone panics when called more often than there are producers.
func (q *HostQueue) ProducerDone() {
	q.mu.Lock()
	if q.finished >= q.producers {
		q.mu.Unlock()
		panic("queue: more producers finished than registered")
	}
	q.finished++
	last := q.finished == q.producers
	q.mu.Unlock()
	if last {
		q.item.Broadcast()
		q.room.Broadcast()
	}
}

// Terminated returns true if all producers have finished and the queue is
// empty.
func (q *HostQueue) Terminated() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished >= q.producers && q.hosts.Len() == 0
}

// Len returns the number of hostnames currently queued.
func (q *HostQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hosts.Len()
}

// Cap returns the queue capacity.
func (q *HostQueue) Cap() int { return q.capacity }

// HighWater returns the largest number of hostnames queued at any one time.
func (q *HostQueue) HighWater() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.highwater
}

// Finished returns the number of producers that have finished so far.
func (q *HostQueue) Finished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished
}

// closed must be called with q.mu held.
func (q *HostQueue) closed() bool {
	return q.producers > 0 && q.finished >= q.producers
}
