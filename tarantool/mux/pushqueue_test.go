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

func TestNewPushQueueRejectsZeroSize(t *testing.T) {
	_, err := NewPushQueue(0)
	require.ErrorIs(t, err, ErrInvalidQueueSize)
}

func TestPushQueueFIFOOrder(t *testing.T) {
	q, err := NewPushQueue(8)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		v, err := q.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
}

func TestPushQueueDropsOldestWhenFull(t *testing.T) {
	q, err := NewPushQueue(2)
	require.NoError(t, err)
	q.Push("a")
	q.Push("b")
	q.Push("c") // "a" is dropped, queue holds b, c

	ctx := context.Background()
	v, err := q.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "b", v)

	v, err = q.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "c", v)
}

func TestPushQueueNextBlocksThenDelivers(t *testing.T) {
	q, err := NewPushQueue(4)
	require.NoError(t, err)

	result := make(chan interface{}, 1)
	go func() {
		v, err := q.Next(context.Background())
		require.NoError(t, err)
		result <- v
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push("delayed")

	select {
	case v := <-result:
		require.Equal(t, "delayed", v)
	case <-time.After(time.Second):
		t.Fatal("Next did not unblock after Push")
	}
}

func TestPushQueueCloseDrainsThenReturnsEndErr(t *testing.T) {
	q, err := NewPushQueue(4)
	require.NoError(t, err)
	q.Push(1)
	q.Close(nil)

	ctx := context.Background()
	v, err := q.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	_, err = q.Next(ctx)
	require.ErrorIs(t, err, tarantoolerr.ErrPushIterationDone)

	// Close is idempotent from the caller's perspective: further Next
	// calls keep returning the same terminal error.
	_, err = q.Next(ctx)
	require.ErrorIs(t, err, tarantoolerr.ErrPushIterationDone)
}

func TestPushQueueCloseWithErrorPropagates(t *testing.T) {
	q, err := NewPushQueue(1)
	require.NoError(t, err)
	lost := tarantoolerr.NewConnectionLost(nil)
	q.Close(lost)

	_, err = q.Next(context.Background())
	require.ErrorIs(t, err, lost)
}

func TestPushQueueNextRespectsContextCancellation(t *testing.T) {
	q, err := NewPushQueue(1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = q.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
