/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantool

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"

	"github.com/gravwell/tarantool/tarantool/iproto"
	"github.com/gravwell/tarantool/tarantool/msgpack"
	"github.com/gravwell/tarantool/tarantool/mux"
	"github.com/gravwell/tarantool/tarantoolerr"
)

// isWrongSchemaVersion reports whether err is a server-reported
// ER_WRONG_SCHEMA_VERSION, the signal that this connection's cached
// schema is stale relative to the space/index ids it just sent.
func isWrongSchemaVersion(err error) bool {
	var dbErr *tarantoolerr.DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr.Code == iproto.ErrWrongSchemaVersion
	}
	return false
}

// encodeRequest serializes one IPROTO header+body pair into a single
// frame payload ready for iproto.WriteFrame.
func encodeRequest(requestType uint64, syncID, streamID uint64, body map[int]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	headerLen := 2
	if streamID != 0 {
		headerLen = 3
	}
	if err := enc.EncodeMapLen(headerLen); err != nil {
		return nil, err
	}
	if err := enc.EncodeInt(iproto.KeyRequestType); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(requestType); err != nil {
		return nil, err
	}
	if err := enc.EncodeInt(iproto.KeySync); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(syncID); err != nil {
		return nil, err
	}
	if streamID != 0 {
		if err := enc.EncodeInt(iproto.KeyStreamID); err != nil {
			return nil, err
		}
		if err := enc.EncodeUint(streamID); err != nil {
			return nil, err
		}
	}

	if err := enc.EncodeMapLen(len(body)); err != nil {
		return nil, err
	}
	for k, v := range body {
		if err := enc.EncodeInt(int64(k)); err != nil {
			return nil, err
		}
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// roundTrip sends one request and blocks for its final response. If the
// server reports ER_WRONG_SCHEMA_VERSION, the schema is refetched and the
// request is retried exactly once against the refreshed cache before the
// error is surfaced to the caller.
func (c *Connection) roundTrip(ctx context.Context, requestType uint64, streamID uint64, body map[int]interface{}) (*Response, error) {
	resp, err := c.roundTripOnce(ctx, requestType, streamID, body)
	if isWrongSchemaVersion(err) {
		if ferr := c.fetchSchema(ctx); ferr == nil {
			return c.roundTripOnce(ctx, requestType, streamID, body)
		}
	}
	return resp, err
}

// roundTripOnce is roundTrip's single-attempt core, honoring ctx
// cancellation by abandoning the sync-id in the mux table (a late server
// reply is then silently dropped rather than delivered to no one).
func (c *Connection) roundTripOnce(ctx context.Context, requestType uint64, streamID uint64, body map[int]interface{}) (*Response, error) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return nil, tarantoolerr.ErrNotConnected
	}

	syncID := c.tbl.NextSyncID()
	done := c.tbl.Register(syncID, nil)

	payload, err := encodeRequest(requestType, syncID, streamID, body)
	if err != nil {
		c.tbl.Cancel(syncID)
		return nil, err
	}

	c.wrMu.Lock()
	err = iproto.WriteFrame(conn, payload)
	c.wrMu.Unlock()
	if err == nil {
		atomic.AddUint64(&c.bytesWritten, uint64(5+len(payload)))
	}
	if err != nil {
		c.tbl.Cancel(syncID)
		return nil, tarantoolerr.NewConnectionLost(err)
	}

	select {
	case resp := <-done:
		if resp.Err != nil {
			return nil, resp.Err
		}
		r, _ := resp.Body.(*Response)
		if r != nil && r.Err != nil {
			return r, r.Err
		}
		return r, nil
	case <-ctx.Done():
		c.tbl.Cancel(syncID)
		return nil, ctx.Err()
	}
}

// roundTripPush is roundTrip's counterpart for requests that may stream
// push messages ahead of their final response (CALL/EVAL against a
// box.session.push-using procedure). The returned *PushIterator must be
// drained (or discarded) independently of the final response. Like
// roundTrip, an ER_WRONG_SCHEMA_VERSION response triggers one schema
// refetch and one retry before the error is surfaced.
func (c *Connection) roundTripPush(ctx context.Context, requestType uint64, streamID uint64, body map[int]interface{}, pushBufSize uint) (*Response, *PushIterator, error) {
	resp, pi, err := c.roundTripPushOnce(ctx, requestType, streamID, body, pushBufSize)
	if isWrongSchemaVersion(err) {
		if ferr := c.fetchSchema(ctx); ferr == nil {
			return c.roundTripPushOnce(ctx, requestType, streamID, body, pushBufSize)
		}
	}
	return resp, pi, err
}

// roundTripPushOnce is roundTripPush's single-attempt core.
func (c *Connection) roundTripPushOnce(ctx context.Context, requestType uint64, streamID uint64, body map[int]interface{}, pushBufSize uint) (*Response, *PushIterator, error) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return nil, nil, tarantoolerr.ErrNotConnected
	}

	pq, err := mux.NewPushQueue(pushBufSize)
	if err != nil {
		return nil, nil, err
	}

	syncID := c.tbl.NextSyncID()
	done := c.tbl.Register(syncID, pq)

	payload, err := encodeRequest(requestType, syncID, streamID, body)
	if err != nil {
		c.tbl.Cancel(syncID)
		return nil, nil, err
	}

	c.wrMu.Lock()
	err = iproto.WriteFrame(conn, payload)
	c.wrMu.Unlock()
	if err == nil {
		atomic.AddUint64(&c.bytesWritten, uint64(5+len(payload)))
	}
	if err != nil {
		c.tbl.Cancel(syncID)
		return nil, nil, tarantoolerr.NewConnectionLost(err)
	}

	pi := &PushIterator{q: pq}

	select {
	case resp := <-done:
		if resp.Err != nil {
			return nil, pi, resp.Err
		}
		r, _ := resp.Body.(*Response)
		if r != nil && r.Err != nil {
			return r, pi, r.Err
		}
		return r, pi, nil
	case <-ctx.Done():
		c.tbl.Cancel(syncID)
		return nil, pi, ctx.Err()
	}
}
