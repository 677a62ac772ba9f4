/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package tarantool is an asynchronous client driver for the Tarantool
// database, implementing the IPROTO binary wire protocol over TCP or
// Unix-domain stream sockets.
package tarantool

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gravwell/tarantool/tarantool/iproto"
	"github.com/gravwell/tarantool/tarantool/mux"
	"github.com/gravwell/tarantool/tarantool/schema"
	"github.com/gravwell/tarantool/tarantoolerr"
	"github.com/gravwell/tarantool/tarantoollog"
)

// State is a Connection's lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Config configures a Connection. Address is either "host:port" for TCP
// or "unix/:<path>" for a Unix-domain socket, matching Tarantool's own
// connection-string convention.
type Config struct {
	Address  string
	Username string
	Password string

	ConnectTimeout        time.Duration
	RequestTimeout        time.Duration
	ReconnectTimeout      time.Duration // <= 0 disables reconnect
	PingTimeout           time.Duration // <= 0 disables the background ping task
	KeepAlivePeriod       time.Duration // <= 0 uses defaultKeepAlivePeriod
	FetchSchema           bool
	InitialReadBufferSize int

	Logger *tarantoollog.Logger
}

func (c Config) logger() *tarantoollog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return tarantoollog.NewDiscardLogger()
}

// Connection owns one socket and one request multiplexer. It is safe
// for concurrent use by multiple goroutines issuing requests; connect
// and disconnect are each serialized by their own lock, per the
// at-most-one-concurrent-attempt invariant.
type Connection struct {
	cfg Config
	lgr *tarantoollog.Logger

	connectMu    sync.Mutex
	disconnectMu sync.Mutex

	stateMu sync.RWMutex
	state   State

	connMu sync.Mutex
	conn   net.Conn
	wrMu   sync.Mutex // serializes frame writes onto conn

	tbl     *mux.Table
	schema  schema.Cache
	version iproto.Version

	streamCounter uint64 // atomic, via sync/atomic helpers below
	bytesRead     uint64 // atomic
	bytesWritten  uint64 // atomic
	connectedAt   time.Time

	group      *errgroup.Group
	groupCtx   context.Context
	cancelLoop context.CancelFunc

	readDeadCh chan struct{}
	closeOnce  sync.Once
}

// Dial opens a Connection and completes the connect subprotocol
// (greeting, auth, optional schema fetch) before returning. When
// cfg.ReconnectTimeout is set, a failed initial attempt (dial, greeting,
// auth, or schema fetch) is retried after that backoff instead of
// failing Dial outright, matching the CONNECTING->RECONNECTING->
// CONNECTING cycle background reconnects also follow.
func Dial(ctx context.Context, cfg Config) (*Connection, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	c := &Connection{
		cfg: cfg,
		lgr: cfg.logger(),
		tbl: mux.NewTable(),
	}
	for {
		err := c.connect(ctx)
		if err == nil {
			return c, nil
		}
		if cfg.ReconnectTimeout <= 0 {
			return nil, err
		}
		c.lgr.Warnf("initial connect to %s failed, retrying in %s: %v", cfg.Address, cfg.ReconnectTimeout, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ReconnectTimeout):
		}
	}
}

func (c *Connection) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// State reports the Connection's current lifecycle state.
func (c *Connection) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// ServerVersion returns the version tuple parsed from the greeting.
func (c *Connection) ServerVersion() iproto.Version {
	return c.version
}

func parseAddress(addr string) (network, address string) {
	const unixPrefix = "unix/:"
	if strings.HasPrefix(addr, unixPrefix) {
		return "unix", strings.TrimPrefix(addr, unixPrefix)
	}
	return "tcp", addr
}

// connect runs the full connect subprotocol: dial, greeting, start the
// read loop, auth, schema fetch, then starts the background ping and
// reconnect tasks. At most one connect attempt runs at a time.
func (c *Connection) connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.setState(Connecting)

	network, address := parseAddress(c.cfg.Address)
	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		c.setState(Disconnected)
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return &tarantoolerr.Timeout{Op: "connect"}
		}
		return tarantoolerr.NewConnectionLost(err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	enableKeepAlive(conn, c.cfg.KeepAlivePeriod)

	greeting, err := iproto.ReadGreeting(conn)
	if err != nil {
		conn.Close()
		c.setState(Disconnected)
		return err
	}
	c.version = greeting.Version

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.connectedAt = time.Now()
	atomic.StoreUint64(&c.bytesRead, 0)
	atomic.StoreUint64(&c.bytesWritten, 0)

	if c.cancelLoop != nil {
		c.cancelLoop() // tear down the previous connect cycle's read/ping/reconnect trio, if any
	}
	c.groupCtx, c.cancelLoop = context.WithCancel(context.Background())
	grp, gctx := errgroup.WithContext(c.groupCtx)
	c.group = grp
	c.readDeadCh = make(chan struct{})

	readBufSize := c.cfg.InitialReadBufferSize
	if readBufSize <= 0 {
		readBufSize = 4096
	}
	reader := bufio.NewReaderSize(conn, readBufSize)

	// The read loop must be running before any roundTrip (including
	// auth) is issued: roundTrip blocks on a channel that only the read
	// loop ever feeds, via mux.Table.Complete.
	grp.Go(func() error {
		c.readLoop(reader)
		return nil
	})

	if c.cfg.Username != "" {
		if err := c.authenticate(ctx, greeting); err != nil {
			c.abortConnect(conn)
			return err
		}
	}

	if c.cfg.FetchSchema {
		if err := c.connectFetchSchema(ctx); err != nil {
			c.abortConnect(conn)
			return err
		}
	}

	c.setState(Connected)

	if c.cfg.PingTimeout > 0 {
		grp.Go(func() error {
			c.pingLoop(gctx)
			return nil
		})
	}

	if c.cfg.ReconnectTimeout > 0 {
		grp.Go(func() error {
			c.reconnectLoop(gctx)
			return nil
		})
	}

	c.lgr.Infof("connected to %s", c.cfg.Address)
	return nil
}

// abortConnect tears down a connect attempt that got as far as starting
// the read loop but failed a later step (auth, schema fetch): it closes
// the socket (unblocking the read loop's pending Read), cancels the
// loop context, and waits for the read loop to actually exit before
// connect returns, so no goroutine from the failed attempt survives it.
func (c *Connection) abortConnect(conn net.Conn) {
	conn.Close()
	if c.cancelLoop != nil {
		c.cancelLoop()
	}
	if c.group != nil {
		c.group.Wait()
	}
	c.connMu.Lock()
	c.conn = nil
	c.connMu.Unlock()
	c.setState(Disconnected)
}

// connectFetchSchema runs the initial schema fetch during connect,
// applying the retry policy a box instance's transient startup errors
// call for: ER_NO_SUCH_SPACE/ER_NO_SUCH_INDEX_ID/ER_LOADING (the schema
// system spaces aren't populated yet, or the instance is still
// recovering) are retried after cfg.ReconnectTimeout when reconnect is
// enabled, and surfaced immediately otherwise. Any other error always
// surfaces immediately.
func (c *Connection) connectFetchSchema(ctx context.Context) error {
	for {
		err := c.fetchSchema(ctx)
		if err == nil {
			return nil
		}
		if !isTransientSchemaErr(err) || c.cfg.ReconnectTimeout <= 0 {
			return err
		}
		c.lgr.Warnf("initial schema fetch failed transiently, retrying in %s: %v", c.cfg.ReconnectTimeout, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReconnectTimeout):
		}
	}
}

// readLoop reads frames off conn until it errors, then sweeps every
// in-flight request with a ConnectionLost error and signals death.
func (c *Connection) readLoop(r io.Reader) {
	defer close(c.readDeadCh)
	for {
		payload, err := iproto.ReadFrame(r)
		if err != nil {
			if err != io.EOF {
				c.lgr.Warnf("connection read error: %v", err)
			}
			c.tbl.Sweep(tarantoolerr.NewConnectionLost(err))
			return
		}
		atomic.AddUint64(&c.bytesRead, uint64(5+len(payload)))
		h, body, err := decodeFrame(payload)
		if err != nil {
			c.lgr.Warnf("frame decode error: %v", err)
			continue
		}
		resp := buildResponse(h, body)
		if resp.SchemaVersion > c.schema.Version() && c.cfg.FetchSchema {
			go c.refetchSchemaCoalesced()
		}
		if iproto.IsPush(h.RequestType) {
			c.tbl.Push(h.Sync, resp)
			continue
		}
		c.tbl.Complete(h.Sync, resp, nil)
	}
}

var schemaRefetchInFlight sync.Map // *Connection -> struct{}, coalesces concurrent refetches

func (c *Connection) refetchSchemaCoalesced() {
	if _, loaded := schemaRefetchInFlight.LoadOrStore(c, struct{}{}); loaded {
		return
	}
	defer schemaRefetchInFlight.Delete(c)
	if err := c.fetchSchema(context.Background()); err != nil {
		c.lgr.Warnf("schema refetch failed: %v", err)
	}
}

// pingLoop issues a PING at cfg.PingTimeout intervals while connected,
// swallowing errors (including shutdown cancellation).
func (c *Connection) pingLoop(ctx context.Context) {
	t := time.NewTicker(c.cfg.PingTimeout)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, c.cfg.PingTimeout)
			_, _ = c.Ping(pctx)
			cancel()
		}
	}
}

// reconnectLoop waits for the read loop to die, then reconnects with a
// fixed backoff until disconnect cancels ctx.
func (c *Connection) reconnectLoop(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-c.readDeadCh:
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.ReconnectTimeout):
		}
		c.setState(Reconnecting)
		if err := c.connect(ctx); err != nil {
			c.lgr.Warnf("reconnect attempt failed: %v", err)
			continue
		}
		return // connect() started a fresh read/ping/reconnect trio
	}
}

// Disconnect tears down the connection: cancels background tasks,
// closes the socket, sweeps in-flight requests, and waits for the
// background goroutines to exit.
func (c *Connection) Disconnect() error {
	c.disconnectMu.Lock()
	defer c.disconnectMu.Unlock()

	if c.State() == Disconnected {
		return nil
	}
	c.setState(Disconnecting)

	if c.cancelLoop != nil {
		c.cancelLoop()
	}
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()
	if conn != nil {
		conn.Close()
	}
	c.tbl.Sweep(tarantoolerr.ErrNotConnected)
	if c.group != nil {
		c.group.Wait()
	}
	c.setState(Disconnected)
	c.lgr.Infof("disconnected from %s: %s", c.cfg.Address, c.Stats())
	return nil
}

// Close is a non-blocking variant of Disconnect: it initiates teardown
// without waiting for background goroutines to finish exiting.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		go c.Disconnect()
	})
}

// NextStreamID allocates a fresh, nonzero, monotonic stream id.
func (c *Connection) NextStreamID() uint64 {
	return atomic.AddUint64(&c.streamCounter, 1)
}

// Schema returns the currently cached schema snapshot.
func (c *Connection) Schema() *schema.Schema {
	return c.schema.Load()
}
