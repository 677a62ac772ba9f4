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

	"github.com/gravwell/tarantool/tarantool/iproto"
)

// withTimeout applies cfg.RequestTimeout to ctx when the caller hasn't
// already set a deadline of their own.
func (c *Connection) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.cfg.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.RequestTimeout)
}

// Ping issues an IPROTO PING and waits for the OK response.
func (c *Connection) Ping(ctx context.Context) (*Response, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.roundTrip(ctx, iproto.TypePing, 0, map[int]interface{}{})
}

// SelectOptions configures a Select call beyond space/index/key.
type SelectOptions struct {
	Index     interface{} // name, numeric id, or nil for the primary index
	Iterator  interface{} // name, numeric code, or nil for IterEQ (IterAll if key is empty)
	Limit     uint32
	Offset    uint32
	IndexBase uint32
}

// Select runs a SELECT against space, returning the matching tuples.
func (c *Connection) Select(ctx context.Context, space, key interface{}, opts SelectOptions) (*Response, error) {
	return c.selectStream(ctx, 0, space, key, opts)
}

func (c *Connection) selectStream(ctx context.Context, streamID uint64, space, key interface{}, opts SelectOptions) (*Response, error) {
	s := c.Schema()
	sd, spaceID, err := resolveSpace(s, space)
	if err != nil {
		return nil, err
	}
	indexID, err := resolveIndex(sd, opts.Index)
	if err != nil {
		return nil, err
	}
	positionalKey, err := resolveKey(sd, key)
	if err != nil {
		return nil, err
	}
	iterVal := opts.Iterator
	if iterVal == nil {
		if len(positionalKey) == 0 {
			iterVal = iproto.IterAll
		} else {
			iterVal = iproto.IterEQ
		}
	}
	iter, err := resolveIterator(iterVal)
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit == 0 {
		limit = 0xffffffff
	}

	body := map[int]interface{}{
		iproto.KeySpaceID:   spaceID,
		iproto.KeyIndexID:   indexID,
		iproto.KeyLimit:     limit,
		iproto.KeyOffset:    opts.Offset,
		iproto.KeyIterator:  iter,
		iproto.KeyIndexBase: opts.IndexBase,
		iproto.KeyKey:       positionalKey,
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.roundTrip(ctx, iproto.TypeSelect, streamID, body)
}

func (c *Connection) insertOrReplace(ctx context.Context, requestType uint64, streamID uint64, space, tuple interface{}) (*Response, error) {
	s := c.Schema()
	sd, spaceID, err := resolveSpace(s, space)
	if err != nil {
		return nil, err
	}
	positional, err := positionalizeTuple(sd, tuple)
	if err != nil {
		return nil, err
	}
	body := map[int]interface{}{
		iproto.KeySpaceID: spaceID,
		iproto.KeyTuple:   positional,
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.roundTrip(ctx, requestType, streamID, body)
}

// Insert inserts tuple into space, failing if a tuple with the same
// primary key already exists.
func (c *Connection) Insert(ctx context.Context, space, tuple interface{}) (*Response, error) {
	return c.insertOrReplace(ctx, iproto.TypeInsert, 0, space, tuple)
}

// Replace inserts tuple into space, overwriting any existing tuple that
// shares its primary key.
func (c *Connection) Replace(ctx context.Context, space, tuple interface{}) (*Response, error) {
	return c.insertOrReplace(ctx, iproto.TypeReplace, 0, space, tuple)
}

// Delete removes the tuple matched by key in the given index (primary
// index by default) and returns it.
func (c *Connection) Delete(ctx context.Context, space interface{}, index interface{}, key interface{}) (*Response, error) {
	return c.deleteStream(ctx, 0, space, index, key)
}

func (c *Connection) deleteStream(ctx context.Context, streamID uint64, space, index, key interface{}) (*Response, error) {
	s := c.Schema()
	sd, spaceID, err := resolveSpace(s, space)
	if err != nil {
		return nil, err
	}
	indexID, err := resolveIndex(sd, index)
	if err != nil {
		return nil, err
	}
	positionalKey, err := resolveKey(sd, key)
	if err != nil {
		return nil, err
	}
	body := map[int]interface{}{
		iproto.KeySpaceID: spaceID,
		iproto.KeyIndexID: indexID,
		iproto.KeyKey:     positionalKey,
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.roundTrip(ctx, iproto.TypeDelete, streamID, body)
}

// Update applies ops (a list of [opcode, field, args...] operations) to
// the tuple matched by key in the given index.
func (c *Connection) Update(ctx context.Context, space, index, key interface{}, ops []interface{}) (*Response, error) {
	return c.updateStream(ctx, 0, space, index, key, ops)
}

func (c *Connection) updateStream(ctx context.Context, streamID uint64, space, index, key interface{}, ops []interface{}) (*Response, error) {
	s := c.Schema()
	sd, spaceID, err := resolveSpace(s, space)
	if err != nil {
		return nil, err
	}
	indexID, err := resolveIndex(sd, index)
	if err != nil {
		return nil, err
	}
	positionalKey, err := resolveKey(sd, key)
	if err != nil {
		return nil, err
	}
	positionalOps, err := positionalizeOps(sd, ops)
	if err != nil {
		return nil, err
	}
	body := map[int]interface{}{
		iproto.KeySpaceID: spaceID,
		iproto.KeyIndexID: indexID,
		iproto.KeyKey:     positionalKey,
		iproto.KeyOps:     positionalOps,
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.roundTrip(ctx, iproto.TypeUpdate, streamID, body)
}

// Upsert applies ops if a tuple matching tuple's primary key already
// exists, or inserts tuple otherwise.
func (c *Connection) Upsert(ctx context.Context, space, tuple interface{}, ops []interface{}) (*Response, error) {
	return c.upsertStream(ctx, 0, space, tuple, ops)
}

func (c *Connection) upsertStream(ctx context.Context, streamID uint64, space, tuple interface{}, ops []interface{}) (*Response, error) {
	s := c.Schema()
	sd, spaceID, err := resolveSpace(s, space)
	if err != nil {
		return nil, err
	}
	positionalTuple, err := positionalizeTuple(sd, tuple)
	if err != nil {
		return nil, err
	}
	positionalOps, err := positionalizeOps(sd, ops)
	if err != nil {
		return nil, err
	}
	body := map[int]interface{}{
		iproto.KeySpaceID: spaceID,
		iproto.KeyTuple:   positionalTuple,
		iproto.KeyOps:     positionalOps,
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.roundTrip(ctx, iproto.TypeUpsert, streamID, body)
}

// Call invokes a stored Lua function by name with args, returning its
// final response. Use CallPush instead when the function may use
// box.session.push to stream intermediate results.
func (c *Connection) Call(ctx context.Context, fn string, args []interface{}) (*Response, error) {
	resp, _, err := c.callPushStream(ctx, 0, fn, args, 0)
	return resp, err
}

// CallPush invokes fn like Call, but also returns a PushIterator that
// drains any box.session.push messages the function emits before its
// final response arrives.
func (c *Connection) CallPush(ctx context.Context, fn string, args []interface{}) (*Response, *PushIterator, error) {
	return c.callPushStream(ctx, 0, fn, args, DefaultPushQueueSize)
}

func (c *Connection) callPushStream(ctx context.Context, streamID uint64, fn string, args []interface{}, pushBufSize uint) (*Response, *PushIterator, error) {
	if args == nil {
		args = []interface{}{}
	}
	body := map[int]interface{}{
		iproto.KeyFunctionName: fn,
		iproto.KeyTuple:        args,
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if pushBufSize == 0 {
		resp, err := c.roundTrip(ctx, iproto.TypeCall, streamID, body)
		return resp, nil, err
	}
	return c.roundTripPush(ctx, iproto.TypeCall, streamID, body, pushBufSize)
}

// Eval evaluates a Lua expression with args, returning its final
// response.
func (c *Connection) Eval(ctx context.Context, expr string, args []interface{}) (*Response, error) {
	if args == nil {
		args = []interface{}{}
	}
	body := map[int]interface{}{
		iproto.KeyExpr:  expr,
		iproto.KeyTuple: args,
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.roundTrip(ctx, iproto.TypeEval, 0, body)
}

// Execute runs a SQL statement with positional or named bind args.
func (c *Connection) Execute(ctx context.Context, sql string, args []interface{}) (*Response, error) {
	if !c.version.AtLeast(2, 0) {
		return nil, sqlUnsupportedErr()
	}
	if args == nil {
		args = []interface{}{}
	}
	body := map[int]interface{}{
		iproto.KeySQLText: sql,
		iproto.KeySQLBind: args,
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.roundTrip(ctx, iproto.TypeExecute, 0, body)
}
