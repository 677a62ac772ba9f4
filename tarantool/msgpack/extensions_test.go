/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package msgpack

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gravwell/tarantool/tarantoolerr"
)

func TestDecimalRoundTrip(t *testing.T) {
	cases := []string{"-12.345", "0.000", "0", "99999999999999999999999999999999999999", "1"}
	for _, s := range cases {
		want, err := decimal.NewFromString(s)
		require.NoError(t, err, s)

		b, err := NewDecimal(want).MarshalBinary()
		require.NoError(t, err, s)

		var got Decimal
		require.NoError(t, got.UnmarshalBinary(b), s)
		require.True(t, want.Equal(got.Decimal), "%s: want %s got %s", s, want, got.Decimal)
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	want := uuid.New()
	b, err := NewUUID(want).MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 16)

	var got UUID
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want, got.UUID)
}

func TestUUIDBadLength(t *testing.T) {
	var got UUID
	require.ErrorIs(t, got.UnmarshalBinary([]byte{1, 2, 3}), ErrUUIDLength)
}

func TestErrorDescriptorRoundTrip(t *testing.T) {
	want := ErrorDescriptor{ErrorDescriptor: tarantoolerr.ErrorDescriptor{
		Stack: []tarantoolerr.ErrorFrame{
			{Type: "ClientError", File: "box.lua", Line: 42, Message: "no such space", Errno: 0, Code: 0x13},
			{Type: "ClientError", File: "box.lua", Line: 10, Message: "wrapped"},
		},
	}}
	b, err := want.MarshalBinary()
	require.NoError(t, err)

	var got ErrorDescriptor
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want.Stack, got.Stack)
}

func TestDateTimeRoundTripSecondsOnly(t *testing.T) {
	want := time.Unix(1700000000, 0).UTC()
	b, err := NewDateTime(want).MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 8)

	var got DateTime
	require.NoError(t, got.UnmarshalBinary(b))
	require.True(t, want.Equal(got.Time))
}

func TestDateTimeRoundTripWithNanos(t *testing.T) {
	want := time.Unix(1700000000, 123456789).UTC()
	b, err := NewDateTime(want).MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 16)

	var got DateTime
	require.NoError(t, got.UnmarshalBinary(b))
	require.True(t, want.Equal(got.Time))
}

func TestIntervalRoundTrip(t *testing.T) {
	want := Interval{Day: 3, Hour: -5, Nsec: 500}
	want.SetAdjust(AdjustExcess)

	b, err := want.MarshalBinary()
	require.NoError(t, err)

	var got Interval
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want.Day, got.Day)
	require.Equal(t, want.Hour, got.Hour)
	require.Equal(t, want.Nsec, got.Nsec)
	require.Equal(t, AdjustExcess, got.Adjust)
}

func TestIntervalZeroFieldsOmitted(t *testing.T) {
	iv := Interval{Day: 1}
	b, err := iv.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, byte(1), b[0])
}
