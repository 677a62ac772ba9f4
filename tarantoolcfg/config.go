/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package tarantoolcfg provides an optional INI-file configuration layer
// alongside the driver's Dial(ctx, Config) API. It exists for callers
// that prefer a config file over a hand-written Config; the driver
// itself never requires one.
package tarantoolcfg

import (
	"errors"
	"strings"
	"time"
)

const (
	defaultConnectTimeout   = 10 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultReconnectTimeout = 1 * time.Second
	defaultPingTimeout      = 5 * time.Second
	defaultReadBufferSize   = 64 * 1024
)

var (
	ErrNoServer          = errors.New("Server value missing")
	ErrInvalidTimeout    = errors.New("invalid timeout value")
	ErrInvalidBufferSize = errors.New("invalid Initial-Read-Buffer-Size value")
)

// Tarantool is the [Tarantool] section of a config file, mirroring the
// teacher's Global-section IngestConfig: plain exported fields, string
// durations rather than time.Duration (so the file stays human-editable),
// and a Verify()-style validation pass that fills in defaults.
type Tarantool struct {
	Server                    string
	Username                  string
	Password                  string
	Connect_Timeout           string
	Request_Timeout           string
	Reconnect_Timeout         string
	Ping_Timeout              string
	Fetch_Schema              bool
	Initial_Read_Buffer_Size  string

	connectTimeout   time.Duration
	requestTimeout   time.Duration
	reconnectTimeout time.Duration
	pingTimeout      time.Duration
	readBufferSize   int
}

// cfgReadType is the raw gcfg target; LoadConfigFile/LoadConfigBytes
// populate this, then copy the Tarantool section out, the same
// intermediary-struct trick the teacher's ingesters use to keep the INI
// section name ("[Tarantool]") separate from the Go-facing type name.
type cfgReadType struct {
	Tarantool Tarantool
}

// Validate fills in defaults for any unset duration/size fields and
// checks the required ones, returning the teacher's named sentinel
// errors on failure. LoadFile and LoadBytes already call it on the
// section they load.
func (c *Tarantool) Validate() (err error) {
	if strings.TrimSpace(c.Server) == `` {
		return ErrNoServer
	}
	if c.connectTimeout, err = parseDurationDefault(c.Connect_Timeout, defaultConnectTimeout); err != nil {
		return ErrInvalidTimeout
	}
	if c.requestTimeout, err = parseDurationDefault(c.Request_Timeout, defaultRequestTimeout); err != nil {
		return ErrInvalidTimeout
	}
	if c.reconnectTimeout, err = parseDurationDefault(c.Reconnect_Timeout, defaultReconnectTimeout); err != nil {
		return ErrInvalidTimeout
	}
	if c.pingTimeout, err = parseDurationDefault(c.Ping_Timeout, defaultPingTimeout); err != nil {
		return ErrInvalidTimeout
	}
	if strings.TrimSpace(c.Initial_Read_Buffer_Size) == `` {
		c.readBufferSize = defaultReadBufferSize
	} else if n, perr := parseByteSize(c.Initial_Read_Buffer_Size); perr != nil || n <= 0 {
		return ErrInvalidBufferSize
	} else {
		c.readBufferSize = int(n)
	}
	return nil
}

func (c *Tarantool) ConnectTimeout() time.Duration   { return c.connectTimeout }
func (c *Tarantool) RequestTimeout() time.Duration   { return c.requestTimeout }
func (c *Tarantool) ReconnectTimeout() time.Duration { return c.reconnectTimeout }
func (c *Tarantool) PingTimeout() time.Duration      { return c.pingTimeout }
func (c *Tarantool) ReadBufferSize() int             { return c.readBufferSize }
