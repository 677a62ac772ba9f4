/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package msgpack is the MessagePack codec used on the IPROTO wire: a
// thin wrapper over github.com/vmihailenco/msgpack/v5 plus the
// Tarantool-specific MP_EXT extension types (decimal, uuid, error,
// datetime, interval) registered against it.
package msgpack

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoder writes MessagePack values to an underlying stream.
type Encoder = msgpack.Encoder

// Decoder reads MessagePack values from an underlying stream.
type Decoder = msgpack.Decoder

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return msgpack.NewEncoder(w)
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return msgpack.NewDecoder(r)
}

// Marshal encodes v as MessagePack.
func Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes MessagePack bytes b into v.
func Unmarshal(b []byte, v interface{}) error {
	return msgpack.Unmarshal(b, v)
}

// RawMessage preserves an encoded MessagePack value for later decoding.
// It is re-exported here for callers that want to defer decoding; the
// response parser itself decodes body values eagerly.
type RawMessage = msgpack.RawMessage
