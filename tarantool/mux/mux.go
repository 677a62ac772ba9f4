/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package mux implements request multiplexing over a single IPROTO
// connection: sync-id allocation, the in-flight request table a reader
// goroutine delivers responses into, and the bounded push-message queue
// each in-flight request can optionally carry.
package mux

import (
	"sync"

	"github.com/gravwell/tarantool/tarantoolerr"
)

// Response is what a reader goroutine hands back to a waiting caller:
// either the decoded value of a final response, or an error observed
// while reading or decoding it. Body is opaque to this package — the
// connection engine stores its own decoded response type here.
type Response struct {
	Body interface{}
	Err  error
}

// request is the bookkeeping record for one in-flight sync-id. Per-request
// timeouts are the caller's responsibility (writer.go applies them via
// ctx), so this table only needs to know where to deliver the reply.
type request struct {
	done chan Response
	push *PushQueue // nil unless the caller asked to receive push messages
}

// Table is the in-flight request table for a single connection. A
// reader goroutine delivers a response or push for a sync-id with
// Complete or Push;
// a writer goroutine reserves one with Register before sending the
// request frame. Table is safe for concurrent use.
type Table struct {
	mu      sync.Mutex
	nextID  uint64
	inflight map[uint64]*request
}

// NewTable builds an empty request table. Sync-ids start at 1: zero is
// reserved so a zeroed header field is never mistaken for a real id.
func NewTable() *Table {
	return &Table{inflight: make(map[uint64]*request), nextID: 1}
}

// NextSyncID allocates the next monotonic sync-id, skipping zero and
// wrapping past the uint64 max back to 1.
func (t *Table) NextSyncID() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	if t.nextID++; t.nextID == 0 {
		t.nextID = 1
	}
	return id
}

// Register reserves a sync-id in the table, returning the channel the
// caller should block on for the final response. push is non-nil when
// the caller wants to drain push messages tagged with this sync-id as
// they arrive, ahead of the final response.
func (t *Table) Register(syncID uint64, push *PushQueue) <-chan Response {
	done := make(chan Response, 1)
	t.mu.Lock()
	t.inflight[syncID] = &request{done: done, push: push}
	t.mu.Unlock()
	return done
}

// Push routes a decoded push message body to the push queue registered
// for syncID, if any. Unrecognized sync-ids (a push arriving after the
// caller gave up, or a stray frame) are silently dropped.
func (t *Table) Push(syncID uint64, body interface{}) {
	t.mu.Lock()
	req, ok := t.inflight[syncID]
	t.mu.Unlock()
	if ok && req.push != nil {
		req.push.Push(body)
	}
}

// Complete delivers the final response for syncID and removes it from
// the table. A response for an unregistered sync-id (already completed,
// cancelled, or never ours) is dropped.
func (t *Table) Complete(syncID uint64, body interface{}, err error) {
	t.mu.Lock()
	req, ok := t.inflight[syncID]
	if ok {
		delete(t.inflight, syncID)
	}
	t.mu.Unlock()
	if !ok {
		return
	}
	if req.push != nil {
		req.push.Close(err)
	}
	req.done <- Response{Body: body, Err: err}
}

// Cancel abandons a request the caller is no longer waiting on (context
// cancellation, client-side timeout): it is removed from the table so a
// late server response is dropped rather than delivered to no one.
func (t *Table) Cancel(syncID uint64) {
	t.mu.Lock()
	req, ok := t.inflight[syncID]
	if ok {
		delete(t.inflight, syncID)
	}
	t.mu.Unlock()
	if ok && req.push != nil {
		req.push.Close(tarantoolerr.ErrCancelled)
	}
}

// Len reports the number of requests currently awaiting a response.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// Sweep completes every in-flight request with err, for use when the
// connection drops: every waiter currently blocked on a response
// channel is released rather than left hanging forever.
func (t *Table) Sweep(err error) {
	t.mu.Lock()
	pending := t.inflight
	t.inflight = make(map[uint64]*request)
	t.mu.Unlock()

	for _, req := range pending {
		if req.push != nil {
			req.push.Close(err)
		}
		req.done <- Response{Err: err}
	}
}
