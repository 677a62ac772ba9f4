/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantool

import (
	"crypto/sha1"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/tarantool/tarantool/iproto"
)

func TestScrambleIsDeterministic(t *testing.T) {
	var salt [20]byte
	copy(salt[:], "0123456789abcdefghij")

	a := scramble("s3cr3t", salt)
	b := scramble("s3cr3t", salt)
	require.Equal(t, a, b)
	require.Len(t, a, sha1.Size)
}

func TestScrambleDiffersByPasswordAndSalt(t *testing.T) {
	var saltA, saltB [20]byte
	copy(saltA[:], "0123456789abcdefghij")
	copy(saltB[:], "jihgfedcba9876543210")

	base := scramble("s3cr3t", saltA)
	require.NotEqual(t, base, scramble("different", saltA))
	require.NotEqual(t, base, scramble("s3cr3t", saltB))
}

func TestAuthBodyShape(t *testing.T) {
	var salt [20]byte
	copy(salt[:], "0123456789abcdefghij")

	body := authBody("guest", "s3cr3t", salt)
	require.Equal(t, "guest", body[iproto.KeyUserName])

	tup, ok := body[iproto.KeyTuple].([]interface{})
	require.True(t, ok)
	require.Len(t, tup, 2)
	require.Equal(t, authMethodChapSHA1, tup[0])

	scr, ok := tup[1].([]byte)
	require.True(t, ok)
	require.Len(t, scr, sha1.Size)
}
