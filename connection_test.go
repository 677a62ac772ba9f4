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
	"encoding/base64"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/tarantool/tarantool/iproto"
	"github.com/gravwell/tarantool/tarantool/msgpack"
)

// fakeServer starts a one-shot TCP listener that sends a fixed greeting
// and then echoes every incoming request back as an empty OK response
// carrying the same sync-id, enough to exercise Dial's connect
// subprotocol and a simple request round trip without a real server.
func fakeServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var greeting [iproto.GreetingSize]byte
		banner := "Tarantool 2.11.0 (Binary)"
		copy(greeting[:64], banner)
		for i := len(banner); i < 64; i++ {
			greeting[i] = ' '
		}
		salt := make([]byte, 32)
		b64 := base64.StdEncoding.EncodeToString(salt)
		copy(greeting[64:], b64)
		for i := 64 + len(b64); i < 128; i++ {
			greeting[i] = ' '
		}
		if _, err := conn.Write(greeting[:]); err != nil {
			return
		}

		for {
			payload, err := iproto.ReadFrame(conn)
			if err != nil {
				return
			}
			h, _, err := decodeFrame(payload)
			if err != nil {
				return
			}
			resp, err := encodeOKFrameRaw(h.Sync)
			if err != nil {
				return
			}
			if err := iproto.WriteFrame(conn, resp); err != nil {
				return
			}
		}
	}()

	return ln.Addr().String(), func() { ln.Close() }
}

// encodeOKFrameRaw builds a bare OK response frame (no data) for sync, the
// server side of the same wire shape encodeOKFrame builds for tests in
// response_test.go, minus the *testing.T plumbing a background goroutine
// can't use.
func encodeOKFrameRaw(sync uint64) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeMapLen(2); err != nil {
		return nil, err
	}
	if err := enc.EncodeInt(iproto.KeyRequestType); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(iproto.TypeOK); err != nil {
		return nil, err
	}
	if err := enc.EncodeInt(iproto.KeySync); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(sync); err != nil {
		return nil, err
	}
	if err := enc.EncodeMapLen(1); err != nil {
		return nil, err
	}
	if err := enc.EncodeInt(iproto.KeyData); err != nil {
		return nil, err
	}
	if err := enc.EncodeArrayLen(0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestDialConnectsAuthenticatesAndPings(t *testing.T) {
	addr, stop := fakeServer(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := Dial(ctx, Config{
		Address:        addr,
		Username:       "guest",
		Password:       "",
		ConnectTimeout: 2 * time.Second,
		RequestTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	defer conn.Disconnect()

	require.Equal(t, Connected, conn.State())
	require.Equal(t, iproto.Version{Major: 2, Minor: 11, Patch: 0}, conn.ServerVersion())

	resp, err := conn.Ping(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp)
}

func TestParseAddressTCPAndUnix(t *testing.T) {
	network, address := parseAddress("127.0.0.1:3301")
	require.Equal(t, "tcp", network)
	require.Equal(t, "127.0.0.1:3301", address)

	network, address = parseAddress("unix/:/tmp/tarantool.sock")
	require.Equal(t, "unix", network)
	require.Equal(t, "/tmp/tarantool.sock", address)
}
