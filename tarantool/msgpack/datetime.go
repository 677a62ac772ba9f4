/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package msgpack

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ExtDateTime is Tarantool's MP_EXT id for the DATETIME extension type.
const ExtDateTime = 4

var ErrDateTimeLength = errors.New("msgpack: datetime payload is neither 8 nor 16 bytes")

// tzIndex maps a handful of common IANA zone names to Tarantool's
// numeric timezone index. Tarantool ships the full IANA tzdata index
// (~400 entries); this table covers only the few zones listed below. An
// unrecognized zone name falls back to its fixed UTC offset, which
// Tarantool also accepts.
var tzIndex = map[string]int16{
	"UTC":              0,
	"Europe/Moscow":    284,
	"Europe/London":    247,
	"America/New_York": 348,
	"Asia/Tokyo":       248,
}

var tzIndexName = func() map[int16]string {
	m := make(map[int16]string, len(tzIndex))
	for k, v := range tzIndex {
		m[v] = k
	}
	return m
}()

// DateTime is the Go-facing value for Tarantool's DATETIME extension.
type DateTime struct {
	time.Time
}

// NewDateTime wraps a time.Time.
func NewDateTime(t time.Time) DateTime {
	return DateTime{t}
}

func init() {
	msgpack.RegisterExt(ExtDateTime, (*DateTime)(nil))
}

// MarshalBinary implements encoding.BinaryMarshaler. The 8-byte trailer
// (nanoseconds, tz-offset-minutes, tz-index) is emitted only when one of
// those fields is nonzero, matching the reader's requirement to accept
// both the 8- and 16-byte wire forms.
func (d DateTime) MarshalBinary() ([]byte, error) {
	secs := d.Time.Unix()
	nanos := int32(d.Time.Nanosecond())

	_, offsetSecs := d.Time.Zone()
	offsetMinutes := int16(offsetSecs / 60)
	idx := tzIndex[d.Time.Location().String()]

	if nanos == 0 && offsetMinutes == 0 && idx == 0 {
		out := make([]byte, 8)
		binary.LittleEndian.PutUint64(out, uint64(secs))
		return out, nil
	}

	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:8], uint64(secs))
	binary.LittleEndian.PutUint32(out[8:12], uint32(nanos))
	binary.LittleEndian.PutUint16(out[12:14], uint16(offsetMinutes))
	binary.LittleEndian.PutUint16(out[14:16], uint16(idx))
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *DateTime) UnmarshalBinary(b []byte) error {
	if len(b) != 8 && len(b) != 16 {
		return ErrDateTimeLength
	}
	secs := int64(binary.LittleEndian.Uint64(b[0:8]))
	var nanos int32
	var offsetMinutes, idx int16
	if len(b) == 16 {
		nanos = int32(binary.LittleEndian.Uint32(b[8:12]))
		offsetMinutes = int16(binary.LittleEndian.Uint16(b[12:14]))
		idx = int16(binary.LittleEndian.Uint16(b[14:16]))
	}

	loc := time.UTC
	if name, ok := tzIndexName[idx]; ok && idx != 0 {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	} else if offsetMinutes != 0 {
		loc = time.FixedZone("", int(offsetMinutes)*60)
	}
	d.Time = time.Unix(secs, int64(nanos)).In(loc)
	return nil
}
