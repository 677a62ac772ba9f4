/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package msgpack

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gravwell/tarantool/tarantoolerr"
)

// ExtError is Tarantool's MP_EXT id for the extended MP_ERROR type: a map
// whose key 0x00 carries a stack of frames describing a server-side
// error in detail.
const ExtError = 3

const (
	keyErrorStack   = 0x00
	keyErrorType    = 0x00
	keyErrorFile    = 0x01
	keyErrorLine    = 0x02
	keyErrorMessage = 0x03
	keyErrorErrno   = 0x04
	keyErrorCode    = 0x05
	keyErrorFields  = 0x06
)

// ErrorDescriptor wraps tarantoolerr.ErrorDescriptor so it can be
// registered as an MP_EXT type; the wire payload is itself a nested
// MessagePack document (a map), not raw bytes.
type ErrorDescriptor struct {
	tarantoolerr.ErrorDescriptor
}

func init() {
	msgpack.RegisterExt(ExtError, (*ErrorDescriptor)(nil))
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (e ErrorDescriptor) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	if err := enc.EncodeMapLen(1); err != nil {
		return nil, err
	}
	if err := enc.EncodeInt(keyErrorStack); err != nil {
		return nil, err
	}
	if err := enc.EncodeArrayLen(len(e.Stack)); err != nil {
		return nil, err
	}
	for _, frame := range e.Stack {
		if err := encodeErrorFrame(enc, frame); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeErrorFrame(enc *msgpack.Encoder, f tarantoolerr.ErrorFrame) error {
	n := 6
	if len(f.Fields) > 0 {
		n++
	}
	if err := enc.EncodeMapLen(n); err != nil {
		return err
	}
	pairs := []struct {
		key int8
		val interface{}
	}{
		{keyErrorType, f.Type},
		{keyErrorFile, f.File},
		{keyErrorLine, f.Line},
		{keyErrorMessage, f.Message},
		{keyErrorErrno, f.Errno},
		{keyErrorCode, f.Code},
	}
	for _, p := range pairs {
		if err := enc.EncodeInt(int64(p.key)); err != nil {
			return err
		}
		if err := enc.Encode(p.val); err != nil {
			return err
		}
	}
	if len(f.Fields) > 0 {
		if err := enc.EncodeInt(keyErrorFields); err != nil {
			return err
		}
		if err := enc.Encode(f.Fields); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (e *ErrorDescriptor) UnmarshalBinary(b []byte) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeInt()
		if err != nil {
			return err
		}
		if key != keyErrorStack {
			if err := dec.Skip(); err != nil {
				return err
			}
			continue
		}
		count, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		e.Stack = make([]tarantoolerr.ErrorFrame, 0, count)
		for j := 0; j < count; j++ {
			frame, err := decodeErrorFrame(dec)
			if err != nil {
				return err
			}
			e.Stack = append(e.Stack, frame)
		}
	}
	return nil
}

func decodeErrorFrame(dec *msgpack.Decoder) (f tarantoolerr.ErrorFrame, err error) {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return
	}
	for i := 0; i < n; i++ {
		var key int
		if key, err = dec.DecodeInt(); err != nil {
			return
		}
		switch key {
		case keyErrorType:
			f.Type, err = dec.DecodeString()
		case keyErrorFile:
			f.File, err = dec.DecodeString()
		case keyErrorLine:
			f.Line, err = dec.DecodeUint64()
		case keyErrorMessage:
			f.Message, err = dec.DecodeString()
		case keyErrorErrno:
			f.Errno, err = dec.DecodeUint64()
		case keyErrorCode:
			f.Code, err = dec.DecodeUint64()
		case keyErrorFields:
			f.Fields, err = dec.DecodeMap()
		default:
			err = dec.Skip()
		}
		if err != nil {
			return
		}
	}
	return
}
