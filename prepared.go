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

// PreparedStatement is a server-allocated SQL statement handle: prepare
// once, execute many times by substituting the numeric id for the query
// text.
type PreparedStatement struct {
	conn         *Connection
	id           uint64
	BindMetadata []interface{}
	BindCount    uint64
	Metadata     []interface{}
	closed       uint32 // atomic; set once Unprepare has run
}

// Prepare sends sql text to the server and returns the resulting
// PreparedStatement handle. SQL requires Tarantool 2.0 or newer.
func (c *Connection) Prepare(ctx context.Context, sql string) (*PreparedStatement, error) {
	if !c.version.AtLeast(sqlMinVersionMajor, sqlMinVersionMinor) {
		return nil, sqlUnsupportedErr()
	}
	body := map[int]interface{}{
		iproto.KeySQLText: sql,
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	resp, err := c.roundTrip(ctx, iproto.TypePrepare, 0, body)
	if err != nil {
		return nil, err
	}
	return &PreparedStatement{
		conn:         c,
		id:           resp.StmtID,
		BindMetadata: resp.BindMetadata,
		BindCount:    resp.BindCount,
		Metadata:     resp.Metadata,
	}, nil
}

// ID reports the server-assigned statement id.
func (p *PreparedStatement) ID() uint64 { return p.id }

// Execute runs the prepared statement with args bound in place of the
// original query text.
func (p *PreparedStatement) Execute(ctx context.Context, args []interface{}) (*Response, error) {
	if atomic.LoadUint32(&p.closed) != 0 {
		return nil, tarantoolerr.ErrStreamClosed
	}
	if args == nil {
		args = []interface{}{}
	}
	body := map[int]interface{}{
		iproto.KeyStmtID:  p.id,
		iproto.KeySQLBind: args,
	}
	ctx, cancel := p.conn.withTimeout(ctx)
	defer cancel()
	return p.conn.roundTrip(ctx, iproto.TypeExecute, 0, body)
}

// Unprepare releases the statement's server-side resources. The handle
// must not be used afterward; every subsequent Execute or Unprepare call
// fails with ErrStreamClosed instead of reusing a statement-id the
// server has already released.
func (p *PreparedStatement) Unprepare(ctx context.Context) error {
	if !atomic.CompareAndSwapUint32(&p.closed, 0, 1) {
		return tarantoolerr.ErrStreamClosed
	}
	body := map[int]interface{}{
		iproto.KeyStmtID: p.id,
	}
	ctx, cancel := p.conn.withTimeout(ctx)
	defer cancel()
	_, err := p.conn.roundTrip(ctx, iproto.TypePrepare, 0, body)
	return err
}
