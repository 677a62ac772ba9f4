/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package msgpack

import (
	"errors"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ExtUUID is Tarantool's MP_EXT id for the UUID extension type.
const ExtUUID = 2

var ErrUUIDLength = errors.New("msgpack: uuid payload is not 16 bytes")

// UUID is the Go-facing value for Tarantool's UUID extension type. Its
// wire layout is plain RFC 4122 byte order (time-low, time-mid,
// time-hi-and-version, clock-seq, node), which is exactly google/uuid's
// own [16]byte layout, so no reordering is needed on either side.
type UUID struct {
	uuid.UUID
}

// NewUUID wraps a google/uuid value.
func NewUUID(u uuid.UUID) UUID {
	return UUID{u}
}

func init() {
	msgpack.RegisterExt(ExtUUID, (*UUID)(nil))
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (u UUID) MarshalBinary() ([]byte, error) {
	b := u.UUID[:]
	out := make([]byte, 16)
	copy(out, b)
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (u *UUID) UnmarshalBinary(b []byte) error {
	if len(b) != 16 {
		return ErrUUIDLength
	}
	copy(u.UUID[:], b)
	return nil
}
