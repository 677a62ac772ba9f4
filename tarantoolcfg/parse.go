/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantoolcfg

import (
	"strconv"
	"strings"
	"time"
)

// parseDurationDefault accepts either a bare-seconds integer or a
// time.ParseDuration-style string ("5s", "250ms"), the same dual format
// the teacher's IngestConfig.parseTimeout accepts for Connection_Timeout.
// An empty string yields def.
func parseDurationDefault(s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == `` {
		return def, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

type multSuff struct {
	mult int64
	suff string
}

var byteSuffixes = []multSuff{
	{mult: 1024 * 1024 * 1024, suff: `gb`},
	{mult: 1024 * 1024 * 1024, suff: `g`},
	{mult: 1024 * 1024, suff: `mb`},
	{mult: 1024 * 1024, suff: `m`},
	{mult: 1024, suff: `kb`},
	{mult: 1024, suff: `k`},
}

// parseByteSize parses a byte-count string with an optional k/m/g suffix,
// following the same suffix-table approach as the teacher's
// config.parseRate (there, a bit-rate; here, a plain byte count for the
// initial read buffer size).
func parseByteSize(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range byteSuffixes {
		if strings.HasSuffix(s, v.suff) {
			n, err := strconv.ParseInt(strings.TrimSuffix(s, v.suff), 10, 64)
			if err != nil {
				return 0, err
			}
			return n * v.mult, nil
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
