/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/tarantool/tarantool/iproto"
	"github.com/gravwell/tarantool/tarantoolerr"
)

func TestPrepareRejectsOldServer(t *testing.T) {
	c := &Connection{version: iproto.Version{Major: 1, Minor: 10}}
	_, err := c.Prepare(context.Background(), "select 1")
	require.ErrorIs(t, err, tarantoolerr.ErrFeatureUnsupported)
}

func TestPreparedStatementID(t *testing.T) {
	p := &PreparedStatement{id: 99}
	require.Equal(t, uint64(99), p.ID())
}
