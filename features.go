/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantool

import "github.com/gravwell/tarantool/tarantoolerr"

// streamsMinVersionMajor/Minor and sqlMinVersionMajor/Minor gate feature
// use by the server version parsed out of the greeting, rather than by
// probing and failing at first use.
const (
	streamsMinVersionMajor = 2
	streamsMinVersionMinor = 5

	sqlMinVersionMajor = 2
	sqlMinVersionMinor = 0
)

func sqlUnsupportedErr() error {
	return tarantoolerr.ErrFeatureUnsupported
}

func streamsUnsupportedErr() error {
	return tarantoolerr.ErrFeatureUnsupported
}
