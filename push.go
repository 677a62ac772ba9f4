/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantool

import (
	"context"

	"github.com/gravwell/tarantool/tarantool/mux"
)

// DefaultPushQueueSize bounds how many undelivered push messages a
// PushIterator buffers before the oldest is dropped to make room for the
// newest, matching a slow consumer's expectations: recent state over
// complete history.
const DefaultPushQueueSize = 128

// PushIterator streams box.session.push messages tagged with one
// request's sync-id, arriving ahead of (and independently of) that
// request's final response. Multiple PushIterator handles obtained from
// the same call share one underlying queue: each message is delivered to
// whichever handle calls Next first.
type PushIterator struct {
	q *mux.PushQueue
}

// Next blocks for the next push message, or returns
// tarantoolerr.ErrPushIterationDone once the request's final response
// has arrived and no further pushes can come, or ctx's error on
// cancellation.
func (p *PushIterator) Next(ctx context.Context) (*Response, error) {
	if p == nil || p.q == nil {
		return nil, nil
	}
	v, err := p.q.Next(ctx)
	if err != nil {
		return nil, err
	}
	resp, _ := v.(*Response)
	return resp, nil
}
