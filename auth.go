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
	"crypto/sha1"

	"github.com/gravwell/tarantool/tarantool/iproto"
)

const authMethodChapSHA1 = "chap-sha1"

// scramble computes Tarantool's CHAP-SHA1 client proof:
//
//	SHA1(password) XOR SHA1(salt || SHA1(SHA1(password)))
//
// salt is the 20-byte scramble decoded from the server greeting.
func scramble(password string, salt [20]byte) [sha1.Size]byte {
	step1 := sha1.Sum([]byte(password)) // SHA1(password)
	step2 := sha1.Sum(step1[:])         // SHA1(SHA1(password))

	h := sha1.New()
	h.Write(salt[:])
	h.Write(step2[:])
	var step3 [sha1.Size]byte
	copy(step3[:], h.Sum(nil)) // SHA1(salt || SHA1(SHA1(password)))

	var scr [sha1.Size]byte
	for i := range scr {
		scr[i] = step1[i] ^ step3[i]
	}
	return scr
}

// authBody builds the AUTH request body: username plus a two-element
// tuple naming the auth method and carrying the scrambled proof.
func authBody(username, password string, salt [20]byte) map[int]interface{} {
	scr := scramble(password, salt)
	return map[int]interface{}{
		iproto.KeyUserName: username,
		iproto.KeyTuple:    []interface{}{authMethodChapSHA1, scr[:]},
	}
}

// authenticate sends the AUTH request for the greeting's salt and blocks
// for the response. It is called once per connect attempt, before the
// connection is considered usable for anything else.
func (c *Connection) authenticate(ctx context.Context, greeting iproto.Greeting) error {
	body := authBody(c.cfg.Username, c.cfg.Password, greeting.Salt)
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	_, err := c.roundTrip(ctx, iproto.TypeAuth, 0, body)
	return err
}
