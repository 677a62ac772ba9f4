/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantoollog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/crewjam/rfc5424"
	"github.com/stretchr/testify/require"
)

type buffCloser struct {
	bytes.Buffer
}

func (buffCloser) Close() error { return nil }

func newBufLogger() (*Logger, *buffCloser) {
	bc := &buffCloser{}
	return New(bc), bc
}

func TestLevelFiltering(t *testing.T) {
	lgr, buf := newBufLogger()
	require.NoError(t, lgr.SetLevel(WARN))

	require.NoError(t, lgr.Infof("info line %d", 1))
	require.NoError(t, lgr.Warnf("warn line %d", 2))
	require.NoError(t, lgr.Close())

	out := buf.String()
	require.NotContains(t, out, "info line 1")
	require.Contains(t, out, "warn line 2")
}

func TestStructuredFields(t *testing.T) {
	lgr, buf := newBufLogger()
	require.NoError(t, lgr.Error("connect failed", rfc5424.SDParam{Name: "addr", Value: "127.0.0.1:3301"}))
	require.NoError(t, lgr.Close())

	out := buf.String()
	require.Contains(t, out, "connect failed")
	require.Contains(t, out, `addr="127.0.0.1:3301"`)
}

func TestKVLogger(t *testing.T) {
	lgr, buf := newBufLogger()
	kv := NewLoggerWithKV(lgr, rfc5424.SDParam{Name: "stream_id", Value: "7"})
	require.NoError(t, kv.Info("begin"))
	kv.AddKV(rfc5424.SDParam{Name: "op", Value: "commit"})
	require.NoError(t, kv.Info("done"))
	require.NoError(t, lgr.Close())

	out := buf.String()
	require.Contains(t, out, `stream_id="7"`)
	require.Contains(t, out, "begin")
	require.Contains(t, out, `op="commit"`)
	require.Contains(t, out, "done")
}

func TestNotOpenAfterClose(t *testing.T) {
	lgr, _ := newBufLogger()
	require.NoError(t, lgr.Close())
	require.ErrorIs(t, lgr.Infof("after close"), ErrNotOpen)
}

func TestLevelFromString(t *testing.T) {
	lvl, err := LevelFromString("warn")
	require.NoError(t, err)
	require.Equal(t, WARN, lvl)

	_, err = LevelFromString("bogus")
	require.ErrorIs(t, err, ErrInvalidLevel)
}

func TestDiscardLoggerNeverErrors(t *testing.T) {
	lgr := NewDiscardLogger()
	require.NoError(t, lgr.Infof("anything"))
	require.NoError(t, lgr.Close())
}

func TestTrimLength(t *testing.T) {
	require.Equal(t, "twelve byt", trimLength(10, "twelve bytes"))
	require.Equal(t, strings.Repeat("a", 5), trimLength(10, strings.Repeat("a", 5)))
}
