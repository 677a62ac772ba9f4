/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package mux

import (
	"context"
	"errors"
	"sync"

	"github.com/gravwell/tarantool/tarantoolerr"
)

var ErrInvalidQueueSize = errors.New("mux: invalid push queue size")

// circularIndex is a re-usable circular buffer index, adapted from the
// ingest entry buffer's ring-index arithmetic: Add() on a full buffer
// silently overwrites the oldest unread slot rather than blocking,
// since a push queue backs a best-effort notification channel, not a
// guaranteed-delivery one.
type circularIndex struct {
	max, count, head, tail uint
}

func newCircularIndex(sz uint) (*circularIndex, error) {
	if sz == 0 {
		return nil, ErrInvalidQueueSize
	}
	return &circularIndex{max: sz}, nil
}

func (cb *circularIndex) Count() uint { return cb.count }
func (cb *circularIndex) Free() uint  { return cb.max - cb.count }

func (cb *circularIndex) Pop() (idx uint, ok bool) {
	if cb.count > 0 {
		idx, ok = cb.head, true
		if cb.count--; cb.count == 0 {
			cb.head, cb.tail = 0, 0
		} else {
			cb.head = incMod(cb.head, cb.max)
		}
	}
	return
}

func (cb *circularIndex) Add() (idx uint) {
	if cb.count == 0 {
		cb.tail, cb.head, idx = incMod(0, cb.max), 0, 0
		cb.count = 1
		return
	}
	idx = cb.tail
	cb.tail = incMod(cb.tail, cb.max)
	if cb.count == cb.max {
		cb.head = incMod(cb.head, cb.max) // full: drop the oldest unread item
	} else {
		cb.count++
	}
	return
}

func incMod(curr, max uint) uint {
	if curr >= max {
		return 0
	}
	curr++
	if curr >= max {
		return 0
	}
	return curr
}

// PushQueue is the bounded, shared backing store for a single in-flight
// request's push messages. Every PushIterator created against the same
// request shares one PushQueue: an item popped by one iterator is gone
// for the others (join-the-shared-queue fan-out, not replay-from-start —
// see the schema-resync/push-fanout design notes).
type PushQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ring   *circularIndex
	buff   []interface{}
	done   bool
	endErr error
}

// NewPushQueue creates a push queue with room for sz buffered, unread
// push messages.
func NewPushQueue(sz uint) (*PushQueue, error) {
	ci, err := newCircularIndex(sz)
	if err != nil {
		return nil, err
	}
	q := &PushQueue{ring: ci, buff: make([]interface{}, sz)}
	q.cond = sync.NewCond(&q.mu)
	return q, nil
}

// Push enqueues a decoded push payload. It never blocks: a full queue
// drops its oldest unread item.
func (q *PushQueue) Push(v interface{}) {
	q.mu.Lock()
	q.buff[q.ring.Add()] = v
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Close marks the queue terminated: no further pushes will arrive and
// every buffered item has been (or will be) delivered. err is returned
// from Next once the buffer drains (nil means tarantoolerr.ErrPushIterationDone).
func (q *PushQueue) Close(err error) {
	q.mu.Lock()
	q.done = true
	q.endErr = err
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Next blocks until a push item is available, the queue is closed and
// drained, or ctx is cancelled.
func (q *PushQueue) Next(ctx context.Context) (interface{}, error) {
	q.mu.Lock()
	for {
		if idx, ok := q.ring.Pop(); ok {
			v := q.buff[idx]
			q.buff[idx] = nil
			q.mu.Unlock()
			return v, nil
		}
		if q.done {
			err := q.endErr
			q.mu.Unlock()
			if err == nil {
				err = tarantoolerr.ErrPushIterationDone
			}
			return nil, err
		}
		if ctx != nil && ctx.Err() != nil {
			q.mu.Unlock()
			return nil, ctx.Err()
		}
		if ctx == nil {
			q.cond.Wait()
			continue
		}
		// Cond has no ctx-aware wait; hand off to a waiter goroutine so
		// ctx cancellation can interrupt a blocked Wait().
		q.mu.Unlock()
		if waitOrCancel(ctx, q) {
			return nil, ctx.Err()
		}
		q.mu.Lock()
	}
}

// waitOrCancel blocks until either q's condition is signalled or ctx is
// done, reporting which occurred.
func waitOrCancel(ctx context.Context, q *PushQueue) (cancelled bool) {
	signalled := make(chan struct{}, 1)
	go func() {
		q.mu.Lock()
		// Re-check under the lock: a Push, Close or cancel that happened
		// between Next unlocking and this Lock would otherwise be missed.
		if q.ring.Count() == 0 && !q.done && ctx.Err() == nil {
			q.cond.Wait()
		}
		q.mu.Unlock()
		select {
		case signalled <- struct{}{}:
		default:
		}
	}()
	select {
	case <-signalled:
		return false
	case <-ctx.Done():
		q.mu.Lock()
		q.cond.Broadcast() // wake the helper goroutine above so it can exit
		q.mu.Unlock()
		return true
	}
}
