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
	"sync/atomic"

	"github.com/gravwell/tarantool/tarantool/iproto"
	"github.com/gravwell/tarantool/tarantoolerr"
)

// TxnIsolation selects the isolation level a stream's BEGIN request asks
// the server for.
type TxnIsolation int

const (
	TxnIsolationDefault TxnIsolation = iota
	TxnIsolationReadCommitted
	TxnIsolationReadConfirmed
	TxnIsolationBestEffort
)

// Stream pins a sequence of requests to one stream-id so the server
// applies them against the same (possibly transactional) context. A
// Stream is a thin view over its owning Connection: it carries no
// socket or goroutines of its own.
type Stream struct {
	conn   *Connection
	id     uint64
	closed uint32 // atomic; set once Commit or Rollback has run
}

// NewStream allocates a stream against c. Streams require Tarantool
// 2.5 or newer; older servers yield tarantoolerr.ErrFeatureUnsupported.
func (c *Connection) NewStream() (*Stream, error) {
	if !c.version.AtLeast(streamsMinVersionMajor, streamsMinVersionMinor) {
		return nil, streamsUnsupportedErr()
	}
	return &Stream{conn: c, id: c.NextStreamID()}, nil
}

// ID reports the stream's numeric id, as carried in every request's
// IPROTO_STREAM_ID header field.
func (s *Stream) ID() uint64 { return s.id }

// checkOpen rejects any operation issued after Commit or Rollback has
// run: the server has already ended the transaction tied to this
// stream-id, so sending it further requests would silently race a
// stream-id the server no longer associates with this client's intent.
func (s *Stream) checkOpen() error {
	if atomic.LoadUint32(&s.closed) != 0 {
		return tarantoolerr.ErrStreamClosed
	}
	return nil
}

// Begin opens a transaction on the stream at the given isolation level.
func (s *Stream) Begin(ctx context.Context, isolation TxnIsolation) (*Response, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	body := map[int]interface{}{
		iproto.KeyTxnIsolation: uint32(isolation),
	}
	ctx, cancel := s.conn.withTimeout(ctx)
	defer cancel()
	return s.conn.roundTrip(ctx, iproto.TypeBegin, s.id, body)
}

// Commit commits the stream's open transaction. Afterward the stream is
// closed: every further operation on it fails with ErrStreamClosed.
func (s *Stream) Commit(ctx context.Context) (*Response, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	defer atomic.StoreUint32(&s.closed, 1)
	ctx, cancel := s.conn.withTimeout(ctx)
	defer cancel()
	return s.conn.roundTrip(ctx, iproto.TypeCommit, s.id, map[int]interface{}{})
}

// Rollback aborts the stream's open transaction. Afterward the stream is
// closed: every further operation on it fails with ErrStreamClosed.
func (s *Stream) Rollback(ctx context.Context) (*Response, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	defer atomic.StoreUint32(&s.closed, 1)
	ctx, cancel := s.conn.withTimeout(ctx)
	defer cancel()
	return s.conn.roundTrip(ctx, iproto.TypeRollback, s.id, map[int]interface{}{})
}

// Select is Connection.Select scoped to this stream.
func (s *Stream) Select(ctx context.Context, space, key interface{}, opts SelectOptions) (*Response, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.conn.selectStream(ctx, s.id, space, key, opts)
}

// Insert is Connection.Insert scoped to this stream.
func (s *Stream) Insert(ctx context.Context, space, tuple interface{}) (*Response, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.conn.insertOrReplace(ctx, iproto.TypeInsert, s.id, space, tuple)
}

// Replace is Connection.Replace scoped to this stream.
func (s *Stream) Replace(ctx context.Context, space, tuple interface{}) (*Response, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.conn.insertOrReplace(ctx, iproto.TypeReplace, s.id, space, tuple)
}

// Delete is Connection.Delete scoped to this stream.
func (s *Stream) Delete(ctx context.Context, space, index, key interface{}) (*Response, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.conn.deleteStream(ctx, s.id, space, index, key)
}

// Update is Connection.Update scoped to this stream.
func (s *Stream) Update(ctx context.Context, space, index, key interface{}, ops []interface{}) (*Response, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.conn.updateStream(ctx, s.id, space, index, key, ops)
}

// Upsert is Connection.Upsert scoped to this stream.
func (s *Stream) Upsert(ctx context.Context, space, tuple interface{}, ops []interface{}) (*Response, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.conn.upsertStream(ctx, s.id, space, tuple, ops)
}

// Call is Connection.Call scoped to this stream.
func (s *Stream) Call(ctx context.Context, fn string, args []interface{}) (*Response, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	resp, _, err := s.conn.callPushStream(ctx, s.id, fn, args, 0)
	return resp, err
}
