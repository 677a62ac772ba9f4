/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantool

import (
	"net"
	"time"
)

const defaultKeepAlivePeriod = 30 * time.Second

// enableKeepAlive turns on TCP keepalive for conn, if it's a type that
// supports it (a Unix-domain socket does not). A dead peer behind a NAT
// or load balancer otherwise goes undetected until the next write.
func enableKeepAlive(conn net.Conn, period time.Duration) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if period <= 0 {
		period = defaultKeepAlivePeriod
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(period)
}
