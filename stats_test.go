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
	"time"

	"github.com/stretchr/testify/require"
)

func TestHumanSize(t *testing.T) {
	require.Equal(t, "512 B", humanSize(512))
	require.Equal(t, "1.00 KB", humanSize(kb))
	require.Equal(t, "1.00 MB", humanSize(mb))
	require.Equal(t, "1.00 GB", humanSize(gb))
}

func TestHumanRate(t *testing.T) {
	require.Equal(t, "1.00 KB/s", humanRate(kb, time.Second))
	require.Equal(t, humanSize(2048)+"/s", humanRate(2048, 0))
}

func TestStatsString(t *testing.T) {
	s := Stats{BytesRead: 100, BytesWritten: 200, connectedAt: time.Now().Add(-time.Second)}
	str := s.String()
	require.Contains(t, str, "read 100 B")
	require.Contains(t, str, "wrote 200 B")
}
