/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantool

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	kb = 1024
	mb = 1024 * kb
	gb = 1024 * mb
)

// humanSize renders a byte count the way connection lifecycle log lines
// report transfer totals.
func humanSize(b uint64) string {
	switch {
	case b < kb:
		return fmt.Sprintf("%d B", b)
	case b < mb:
		return fmt.Sprintf("%.02f KB", float64(b)/kb)
	case b < gb:
		return fmt.Sprintf("%.02f MB", float64(b)/mb)
	default:
		return fmt.Sprintf("%.02f GB", float64(b)/gb)
	}
}

// humanRate renders bytes transferred over dur as a per-second rate.
func humanRate(b uint64, dur time.Duration) string {
	if dur <= 0 {
		return humanSize(b) + "/s"
	}
	rate := uint64(float64(b) / dur.Seconds())
	return humanSize(rate) + "/s"
}

// Stats holds the cumulative byte counters for one connection's
// lifetime (reset across reconnects, since each cycle dials a fresh
// socket).
type Stats struct {
	BytesRead    uint64
	BytesWritten uint64
	connectedAt  time.Time
}

// Stats returns a snapshot of the connection's current transfer
// counters.
func (c *Connection) Stats() Stats {
	return Stats{
		BytesRead:    atomic.LoadUint64(&c.bytesRead),
		BytesWritten: atomic.LoadUint64(&c.bytesWritten),
		connectedAt:  c.connectedAt,
	}
}

// String renders a human-readable summary, the shape logged at
// disconnect time.
func (s Stats) String() string {
	dur := time.Since(s.connectedAt)
	return fmt.Sprintf("read %s (%s), wrote %s (%s) over %s",
		humanSize(s.BytesRead), humanRate(s.BytesRead, dur),
		humanSize(s.BytesWritten), humanRate(s.BytesWritten, dur), dur)
}
