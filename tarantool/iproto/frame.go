/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package iproto

import (
	"encoding/binary"
	"errors"
	"io"
)

// MaxFrameSize bounds a single IPROTO frame; a well-behaved server never
// sends anything close to this, it exists to reject a desynced stream
// instead of allocating an unbounded buffer.
const MaxFrameSize = 2 * 1024 * 1024 * 1024

var (
	ErrShortRead     = errors.New("iproto: short read on frame")
	ErrShortWrite    = errors.New("iproto: short write on frame")
	ErrFrameTooLarge = errors.New("iproto: frame exceeds maximum size")
	ErrBadSizePrefix = errors.New("iproto: size prefix is not a MessagePack fixed uint32")
)

// sizePrefixTag is MessagePack's fixed-width uint32 tag byte (0xce); the
// IPROTO size prefix is always exactly 5 bytes, which rules out the
// generic msgpack encoder's habit of minimally-encoding small integers.
const sizePrefixTag = 0xce

// WriteFrame writes the 5-byte MP_UINT32 size prefix followed by payload
// (an already-encoded header+body MessagePack pair) to w in one call.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, 5+len(payload))
	buf[0] = sizePrefixTag
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(payload)))
	copy(buf[5:], payload)
	if n, err := w.Write(buf); err != nil {
		return err
	} else if n != len(buf) {
		return ErrShortWrite
	}
	return nil
}

// ReadFrame reads one IPROTO frame from r: the 5-byte size prefix, then
// exactly that many payload bytes.
func ReadFrame(r io.Reader) ([]byte, error) {
	sz, err := ReadFrameSize(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, sz)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadFrameSize reads and validates the 5-byte size prefix, returning the
// payload length that follows.
func ReadFrameSize(r io.Reader) (uint32, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}
	if hdr[0] != sizePrefixTag {
		return 0, ErrBadSizePrefix
	}
	sz := binary.BigEndian.Uint32(hdr[1:])
	if sz > MaxFrameSize {
		return 0, ErrFrameTooLarge
	}
	return sz, nil
}
