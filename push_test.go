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

	"github.com/gravwell/tarantool/tarantool/mux"
)

func TestPushIteratorNilIsSafe(t *testing.T) {
	var p *PushIterator
	resp, err := p.Next(context.Background())
	require.NoError(t, err)
	require.Nil(t, resp)
}

func TestPushIteratorDeliversPushedResponses(t *testing.T) {
	q, err := mux.NewPushQueue(DefaultPushQueueSize)
	require.NoError(t, err)
	p := &PushIterator{q: q}

	want := &Response{Sync: 5}
	q.Push(want)

	got, err := p.Next(context.Background())
	require.NoError(t, err)
	require.Same(t, want, got)
}
