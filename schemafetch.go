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
	"errors"

	"github.com/gravwell/tarantool/tarantool/iproto"
	"github.com/gravwell/tarantool/tarantool/schema"
	"github.com/gravwell/tarantool/tarantoolerr"
)

// isTransientSchemaErr reports whether err is one of the database errors
// a box instance can return while it is still booting or mid-DDL:
// ER_NO_SUCH_SPACE/ER_NO_SUCH_INDEX_ID (a system space/index isn't
// registered yet) or ER_LOADING (the instance hasn't finished recovery).
// connect treats these as worth retrying rather than failing outright.
func isTransientSchemaErr(err error) bool {
	var dbErr *tarantoolerr.DatabaseError
	if !errors.As(err, &dbErr) {
		return false
	}
	switch dbErr.Code {
	case iproto.ErrNoSuchSpace, iproto.ErrNoSuchIndexID, iproto.ErrLoading:
		return true
	default:
		return false
	}
}

// fetchSchema selects the full contents of _vspace and _vindex (and,
// best-effort, _vcollation on servers new enough to carry it) and builds
// a fresh Schema snapshot, swapping it into c.schema. A concurrent
// in-flight fetch is coalesced by refetchSchemaCoalesced; fetchSchema
// itself is not re-entrant-safe beyond that.
func (c *Connection) fetchSchema(ctx context.Context) error {
	spaceRows, version, err := c.selectAll(ctx, iproto.SpaceVSpace)
	if err != nil {
		return err
	}
	indexRows, _, err := c.selectAll(ctx, iproto.SpaceVIndex)
	if err != nil {
		return err
	}

	spaces := make([]schema.VSpaceRow, 0, len(spaceRows))
	for _, row := range spaceRows {
		spaces = append(spaces, decodeVSpaceRow(row))
	}
	indexes := make([]schema.VIndexRow, 0, len(indexRows))
	for _, row := range indexRows {
		indexes = append(indexes, decodeVIndexRow(row))
	}

	var collations map[uint32]string
	if collRows, _, err := c.selectAll(ctx, iproto.SpaceVCollation); err == nil {
		collations = make(map[uint32]string, len(collRows))
		for _, row := range collRows {
			if len(row) < 2 {
				continue
			}
			id, _ := asUint32(row[0])
			name, _ := row[1].(string)
			collations[id] = name
		}
	}

	s, err := schema.Build(version, spaces, indexes, collations)
	if err != nil {
		return err
	}
	c.schema.Store(s)
	return nil
}

// selectAll runs an unbounded (well, 0x7fffffff-limited) SELECT over the
// full extent of a system space's primary index, the one-shot query the
// schema fetch needs and nothing more sophisticated.
func (c *Connection) selectAll(ctx context.Context, spaceID uint32) ([][]interface{}, uint64, error) {
	body := map[int]interface{}{
		iproto.KeySpaceID:   spaceID,
		iproto.KeyIndexID:   uint32(0),
		iproto.KeyLimit:     uint32(0x7fffffff),
		iproto.KeyOffset:    uint32(0),
		iproto.KeyIterator:  iproto.IterAll,
		iproto.KeyIndexBase: uint32(0),
		iproto.KeyKey:       []interface{}{},
	}
	// roundTripOnce, not roundTrip: a schema fetch must not recurse into
	// its own ER_WRONG_SCHEMA_VERSION retry-by-refetch loop.
	resp, err := c.roundTripOnce(ctx, iproto.TypeSelect, 0, body)
	if err != nil {
		return nil, 0, err
	}
	rows := make([][]interface{}, 0, len(resp.Data))
	for _, r := range resp.Data {
		if row, ok := r.([]interface{}); ok {
			rows = append(rows, row)
		}
	}
	return rows, resp.SchemaVersion, nil
}

func decodeVSpaceRow(row []interface{}) schema.VSpaceRow {
	var r schema.VSpaceRow
	if len(row) > 0 {
		id, _ := asUint32(row[0])
		r.ID = id
	}
	if len(row) > 2 {
		r.Name, _ = row[2].(string)
	}
	if len(row) > 3 {
		r.Engine, _ = row[3].(string)
	}
	if len(row) > 6 {
		if fmtRows, ok := row[6].([]interface{}); ok {
			for _, f := range fmtRows {
				if m, ok := f.(map[string]interface{}); ok {
					r.Format = append(r.Format, m)
				}
			}
		}
	}
	return r
}

func decodeVIndexRow(row []interface{}) schema.VIndexRow {
	var r schema.VIndexRow
	if len(row) > 0 {
		r.SpaceID, _ = asUint32(row[0])
	}
	if len(row) > 1 {
		r.IndexID, _ = asUint32(row[1])
	}
	if len(row) > 2 {
		r.Name, _ = row[2].(string)
	}
	if len(row) > 3 {
		r.Type, _ = row[3].(string)
	}
	if len(row) > 5 {
		if parts, ok := row[5].([]interface{}); ok {
			for _, p := range parts {
				fieldNo := -1
				switch pv := p.(type) {
				case []interface{}:
					if len(pv) > 0 {
						if n, ok := asUint32(pv[0]); ok {
							fieldNo = int(n)
						}
					}
				case map[string]interface{}:
					if n, ok := asUint32(pv["field"]); ok {
						fieldNo = int(n)
					}
				}
				r.Parts = append(r.Parts, schema.IndexPart{FieldNo: fieldNo})
			}
		}
	}
	return r
}

func asUint32(v interface{}) (uint32, bool) {
	switch n := v.(type) {
	case uint32:
		return n, true
	case uint64:
		return uint32(n), true
	case int64:
		return uint32(n), true
	case int8:
		return uint32(n), true
	case uint8:
		return uint32(n), true
	case uint16:
		return uint32(n), true
	case int16:
		return uint32(n), true
	case int32:
		return uint32(n), true
	case int:
		return uint32(n), true
	default:
		return 0, false
	}
}
