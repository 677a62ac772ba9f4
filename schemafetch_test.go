/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeVSpaceRow(t *testing.T) {
	row := []interface{}{
		uint64(512), uint32(1), "accounts", "memtx", uint64(0), map[string]interface{}{},
		[]interface{}{
			map[string]interface{}{"name": "id", "type": "unsigned"},
			map[string]interface{}{"name": "login", "type": "string"},
		},
	}
	r := decodeVSpaceRow(row)
	require.Equal(t, uint32(512), r.ID)
	require.Equal(t, "accounts", r.Name)
	require.Equal(t, "memtx", r.Engine)
	require.Len(t, r.Format, 2)
	require.Equal(t, "login", r.Format[1]["name"])
}

func TestDecodeVIndexRowArrayParts(t *testing.T) {
	row := []interface{}{
		uint64(512), uint32(0), "primary", "tree", uint64(1),
		[]interface{}{
			[]interface{}{uint64(0), "unsigned"},
		},
	}
	r := decodeVIndexRow(row)
	require.Equal(t, uint32(512), r.SpaceID)
	require.Equal(t, uint32(0), r.IndexID)
	require.Equal(t, "primary", r.Name)
	require.Equal(t, "tree", r.Type)
	require.Len(t, r.Parts, 1)
	require.Equal(t, 0, r.Parts[0].FieldNo)
}

func TestDecodeVIndexRowMapParts(t *testing.T) {
	row := []interface{}{
		uint64(512), uint32(1), "login", "tree", uint64(1),
		[]interface{}{
			map[string]interface{}{"field": uint64(1), "type": "string"},
		},
	}
	r := decodeVIndexRow(row)
	require.Len(t, r.Parts, 1)
	require.Equal(t, 1, r.Parts[0].FieldNo)
}

func TestAsUint32(t *testing.T) {
	cases := []interface{}{uint32(4), uint64(4), int64(4), int8(4), uint8(4), int(4)}
	for _, c := range cases {
		n, ok := asUint32(c)
		require.True(t, ok)
		require.Equal(t, uint32(4), n)
	}
	_, ok := asUint32("nope")
	require.False(t, ok)
}
