/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testerSpace() VSpaceRow {
	return VSpaceRow{
		ID:     512,
		Name:   "tester",
		Engine: "memtx",
		Format: []map[string]interface{}{
			{"name": "id", "type": "unsigned"},
			{"name": "name", "type": "string"},
		},
	}
}

func TestBuildResolvesSpaceAndIndex(t *testing.T) {
	s, err := Build(7, []VSpaceRow{testerSpace()}, []VIndexRow{
		{SpaceID: 512, IndexID: 0, Name: "primary", Type: "tree", Parts: []IndexPart{{FieldNo: 0}}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(7), s.Version)

	sd, err := s.Space("tester")
	require.NoError(t, err)
	require.Equal(t, uint32(512), sd.ID)

	pos, ok := sd.FieldPosition("name")
	require.True(t, ok)
	require.Equal(t, 1, pos)

	ix, err := sd.Index("primary")
	require.NoError(t, err)
	require.Len(t, ix.Parts, 1)
	require.Equal(t, "id", ix.Parts[0].Name)
}

func TestBuildUnknownSpaceLookup(t *testing.T) {
	s, err := Build(1, []VSpaceRow{testerSpace()}, nil, nil)
	require.NoError(t, err)

	_, err = s.Space("nope")
	require.Error(t, err)

	_, err = s.SpaceByID(9999)
	require.Error(t, err)
}

func TestBuildIndexReferencesUnknownSpace(t *testing.T) {
	_, err := Build(1, nil, []VIndexRow{{SpaceID: 1, Name: "primary"}}, nil)
	require.Error(t, err)
}

func TestCacheDefaultsToEmptySchema(t *testing.T) {
	var c Cache
	s := c.Load()
	require.Equal(t, uint64(0), s.Version)
	_, err := s.Space("anything")
	require.Error(t, err)
}

func TestCacheStoreSwapsWholesale(t *testing.T) {
	var c Cache
	s1, err := Build(1, []VSpaceRow{testerSpace()}, nil, nil)
	require.NoError(t, err)
	c.Store(s1)
	require.Equal(t, uint64(1), c.Version())

	s2, err := Build(2, nil, nil, nil)
	require.NoError(t, err)
	c.Store(s2)
	require.Equal(t, uint64(2), c.Version())
	_, err = c.Load().Space("tester")
	require.Error(t, err)
}
