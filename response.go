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

	"github.com/gravwell/tarantool/tarantool/iproto"
	"github.com/gravwell/tarantool/tarantool/msgpack"
	"github.com/gravwell/tarantool/tarantool/schema"
	"github.com/gravwell/tarantool/tarantoolerr"
)

// header is the decoded IPROTO response header.
type header struct {
	RequestType  uint64
	Sync         uint64
	SchemaVersion uint64
	StreamID     uint64
	HasStreamID  bool
}

// Response is a decoded, final (non-push) IPROTO response body, or the
// payload carried by one push message.
type Response struct {
	Sync          uint64
	SchemaVersion uint64
	StreamID      uint64

	Data         []interface{}
	Metadata     []interface{}
	BindMetadata []interface{}
	BindCount    uint64
	SQLInfo      map[int]interface{}
	StmtID       uint64

	Err *tarantoolerr.DatabaseError
}

// decodeHeader reads one IPROTO header map from dec.
func decodeHeader(dec *msgpack.Decoder) (header, error) {
	var h header
	n, err := dec.DecodeMapLen()
	if err != nil {
		return h, err
	}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeInt()
		if err != nil {
			return h, err
		}
		switch key {
		case iproto.KeyRequestType:
			if h.RequestType, err = dec.DecodeUint64(); err != nil {
				return h, err
			}
		case iproto.KeySync:
			if h.Sync, err = dec.DecodeUint64(); err != nil {
				return h, err
			}
		case iproto.KeySchemaVersion:
			if h.SchemaVersion, err = dec.DecodeUint64(); err != nil {
				return h, err
			}
		case iproto.KeyStreamID:
			if h.StreamID, err = dec.DecodeUint64(); err != nil {
				return h, err
			}
			h.HasStreamID = true
		default:
			if err := dec.Skip(); err != nil {
				return h, err
			}
		}
	}
	return h, nil
}

// decodeBody reads one IPROTO body map, keyed by its raw integer keys,
// without interpreting any of the values.
func decodeBody(dec *msgpack.Decoder) (map[int]interface{}, error) {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	body := make(map[int]interface{}, n)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeInt()
		if err != nil {
			return nil, err
		}
		val, err := dec.DecodeInterface()
		if err != nil {
			return nil, err
		}
		body[key] = val
	}
	return body, nil
}

// decodeFrame decodes one IPROTO frame payload (header map immediately
// followed by body map) into a header and raw body.
func decodeFrame(payload []byte) (header, map[int]interface{}, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	h, err := decodeHeader(dec)
	if err != nil {
		return h, nil, err
	}
	body, err := decodeBody(dec)
	if err != nil {
		return h, nil, err
	}
	return h, body, nil
}

// toInterfaceSlice normalizes a decoded array value (already []interface{}
// from msgpack's generic decode) or returns nil for an absent key.
func toInterfaceSlice(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	if s, ok := v.([]interface{}); ok {
		return s
	}
	return nil
}

func toUint64(v interface{}) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	case int8:
		return uint64(n)
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case int16:
		return uint64(n)
	case int32:
		return uint64(n)
	default:
		return 0
	}
}

// buildResponse interprets a decoded header+body pair as a Response.
// When the header's error flag is set, the Response's Err field holds a
// *tarantoolerr.DatabaseError.
func buildResponse(h header, body map[int]interface{}) *Response {
	r := &Response{
		Sync:          h.Sync,
		SchemaVersion: h.SchemaVersion,
		StreamID:      h.StreamID,
	}

	if iproto.IsError(h.RequestType) {
		dbErr := &tarantoolerr.DatabaseError{
			Code:          iproto.ErrorCode(h.RequestType),
			SchemaVersion: h.SchemaVersion,
		}
		switch v := body[iproto.KeyError].(type) {
		case string:
			// legacy servers: a plain human-readable message, no trace.
			dbErr.Message = v
		case *msgpack.ErrorDescriptor:
			// extended protocol: a full stack of frames (opted in server-side).
			d := tarantoolerr.ErrorDescriptor(v.ErrorDescriptor)
			dbErr.Descriptor = &d
			dbErr.Message = d.String()
		}
		r.Err = dbErr
		return r
	}

	r.Data = toInterfaceSlice(body[iproto.KeyData])
	r.Metadata = toInterfaceSlice(body[iproto.KeyMetadata])
	r.BindMetadata = toInterfaceSlice(body[iproto.KeyBindMetadata])
	r.BindCount = toUint64(body[iproto.KeyBindCount])
	r.StmtID = toUint64(body[iproto.KeyStmtID])
	if sqlInfo, ok := body[iproto.KeySQLInfo].(map[int]interface{}); ok {
		r.SQLInfo = sqlInfo
	}
	return r
}

// TuplesFromData decodes each element of r.Data as a Tuple against sd
// (nil sd yields schemaless tuples).
func (r *Response) TuplesFromData(sd *schema.SpaceDef) []*Tuple {
	if r.Data == nil {
		return nil
	}
	out := make([]*Tuple, len(r.Data))
	for i, row := range r.Data {
		values, _ := row.([]interface{})
		out[i] = NewTuple(values, sd)
	}
	return out
}
