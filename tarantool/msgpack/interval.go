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
	"encoding/binary"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// ExtInterval is Tarantool's MP_EXT id for the INTERVAL extension type.
const ExtInterval = 6

// Interval field-id codes.
const (
	ivYear   = 0
	ivMonth  = 1
	ivWeek   = 2
	ivDay    = 3
	ivHour   = 4
	ivMinute = 5
	ivSec    = 6
	ivNsec   = 7
	ivAdjust = 8
)

// Adjust enumerates how Interval arithmetic handles day-of-month overflow.
type Adjust int8

const (
	AdjustNone   Adjust = 0
	AdjustExcess Adjust = 1
	AdjustLastDay Adjust = 2
)

var ErrIntervalTruncated = errors.New("msgpack: interval payload truncated")

// Interval is the Go-facing value for Tarantool's INTERVAL extension: a
// signed calendar/clock offset broken into independent fields (Tarantool
// does not normalize e.g. 90 minutes into 1h30m).
type Interval struct {
	Year, Month, Week, Day     int64
	Hour, Minute, Sec, Nsec    int64
	Adjust                     Adjust
	adjustSet                  bool
}

// SetAdjust records an explicit Adjust value to encode (the zero value,
// AdjustNone, is otherwise indistinguishable from "field absent").
func (iv *Interval) SetAdjust(a Adjust) {
	iv.Adjust = a
	iv.adjustSet = true
}

func init() {
	msgpack.RegisterExt(ExtInterval, (*Interval)(nil))
}

type ivField struct {
	id    int8
	value int64
}

func (iv Interval) fields() []ivField {
	var out []ivField
	add := func(id int8, v int64) {
		if v != 0 {
			out = append(out, ivField{id, v})
		}
	}
	add(ivYear, iv.Year)
	add(ivMonth, iv.Month)
	add(ivWeek, iv.Week)
	add(ivDay, iv.Day)
	add(ivHour, iv.Hour)
	add(ivMinute, iv.Minute)
	add(ivSec, iv.Sec)
	add(ivNsec, iv.Nsec)
	if iv.adjustSet {
		out = append(out, ivField{ivAdjust, int64(iv.Adjust)})
	}
	return out
}

// MarshalBinary implements encoding.BinaryMarshaler: a tag byte giving
// the field count, followed by (field-id byte, signed-varint value) pairs.
func (iv Interval) MarshalBinary() ([]byte, error) {
	fields := iv.fields()
	var buf bytes.Buffer
	buf.WriteByte(byte(len(fields)))
	var varintBuf [binary.MaxVarintLen64]byte
	for _, f := range fields {
		buf.WriteByte(byte(f.id))
		n := binary.PutVarint(varintBuf[:], f.value)
		buf.Write(varintBuf[:n])
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (iv *Interval) UnmarshalBinary(b []byte) error {
	if len(b) < 1 {
		return ErrIntervalTruncated
	}
	count := int(b[0])
	r := bytes.NewReader(b[1:])
	for i := 0; i < count; i++ {
		idByte, err := r.ReadByte()
		if err != nil {
			return ErrIntervalTruncated
		}
		v, err := binary.ReadVarint(r)
		if err != nil {
			return ErrIntervalTruncated
		}
		switch idByte {
		case ivYear:
			iv.Year = v
		case ivMonth:
			iv.Month = v
		case ivWeek:
			iv.Week = v
		case ivDay:
			iv.Day = v
		case ivHour:
			iv.Hour = v
		case ivMinute:
			iv.Minute = v
		case ivSec:
			iv.Sec = v
		case ivNsec:
			iv.Nsec = v
		case ivAdjust:
			iv.Adjust = Adjust(v)
			iv.adjustSet = true
		}
	}
	return nil
}
