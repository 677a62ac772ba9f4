/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantoolerr

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectionLostUnwrap(t *testing.T) {
	e := NewConnectionLost(io.EOF)
	require.ErrorIs(t, e, io.EOF)
	require.Contains(t, e.Error(), "EOF")
}

func TestConnectionLostNilErr(t *testing.T) {
	e := &ConnectionLost{}
	require.Equal(t, "tarantool: connection lost", e.Error())
}

func TestTimeoutMessage(t *testing.T) {
	require.Equal(t, "tarantool: connect timed out", (&Timeout{Op: "connect"}).Error())
	require.Equal(t, "tarantool: timeout", (&Timeout{}).Error())
}

func TestDatabaseErrorIsMatchesByCode(t *testing.T) {
	a := &DatabaseError{Code: 10, Message: "no such space"}
	b := &DatabaseError{Code: 10, Message: "different message, same code"}
	c := &DatabaseError{Code: 11, Message: "no such index"}

	require.True(t, errors.Is(a, b))
	require.False(t, errors.Is(a, c))
}

func TestSchemaError(t *testing.T) {
	err := NewSchemaError("space", "accounts")
	require.Equal(t, `tarantool: no such space: "accounts"`, err.Error())
}

func TestErrorDescriptorString(t *testing.T) {
	var empty ErrorDescriptor
	require.Equal(t, "", empty.String())

	d := ErrorDescriptor{Stack: []ErrorFrame{{Message: "boom"}}}
	require.Equal(t, "boom", d.String())
}
