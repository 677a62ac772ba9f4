/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package mux

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/tarantool/tarantoolerr"
)

func TestNextSyncIDSkipsZeroAndIsMonotonic(t *testing.T) {
	tbl := NewTable()
	first := tbl.NextSyncID()
	require.NotZero(t, first)
	second := tbl.NextSyncID()
	require.Equal(t, first+1, second)
}

func TestNextSyncIDWrapsPastMaxSkippingZero(t *testing.T) {
	tbl := NewTable()
	tbl.nextID = ^uint64(0) // one below wraparound
	last := tbl.NextSyncID()
	require.Equal(t, ^uint64(0), last)
	wrapped := tbl.NextSyncID()
	require.Equal(t, uint64(1), wrapped)
}

func TestRegisterCompleteDeliversResponse(t *testing.T) {
	tbl := NewTable()
	id := tbl.NextSyncID()
	done := tbl.Register(id, nil)
	require.Equal(t, 1, tbl.Len())

	tbl.Complete(id, []byte("body"), nil)
	resp := <-done
	require.NoError(t, resp.Err)
	require.Equal(t, []byte("body"), resp.Body)
	require.Equal(t, 0, tbl.Len())
}

func TestCompleteUnknownSyncIDIsNoop(t *testing.T) {
	tbl := NewTable()
	require.NotPanics(t, func() { tbl.Complete(999, nil, nil) })
}

func TestCancelPreventsLateDelivery(t *testing.T) {
	tbl := NewTable()
	id := tbl.NextSyncID()
	tbl.Register(id, nil)
	tbl.Cancel(id)
	require.Equal(t, 0, tbl.Len())
	// a server response arriving after cancellation is simply dropped
	require.NotPanics(t, func() { tbl.Complete(id, []byte("late"), nil) })
}

func TestSweepReleasesAllWaiters(t *testing.T) {
	tbl := NewTable()
	var chans []<-chan Response
	for i := 0; i < 5; i++ {
		id := tbl.NextSyncID()
		chans = append(chans, tbl.Register(id, nil))
	}
	require.Equal(t, 5, tbl.Len())

	lost := tarantoolerr.NewConnectionLost(nil)
	tbl.Sweep(lost)

	for _, c := range chans {
		resp := <-c
		require.ErrorIs(t, resp.Err, lost)
	}
	require.Equal(t, 0, tbl.Len())
}

func TestPushRoutesToRegisteredQueue(t *testing.T) {
	tbl := NewTable()
	q, err := NewPushQueue(4)
	require.NoError(t, err)

	id := tbl.NextSyncID()
	done := tbl.Register(id, q)

	tbl.Push(id, []byte("first"))
	tbl.Push(id, []byte("second"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := q.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), v)

	v, err = q.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), v)

	tbl.Complete(id, []byte("final"), nil)
	resp := <-done
	require.Equal(t, []byte("final"), resp.Body)

	_, err = q.Next(ctx)
	require.ErrorIs(t, err, tarantoolerr.ErrPushIterationDone)
}

func TestPushToUnregisteredSyncIDIsDropped(t *testing.T) {
	tbl := NewTable()
	require.NotPanics(t, func() { tbl.Push(42, []byte("stray")) })
}
