/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package schema

import "fmt"

// VSpaceRow is one decoded row of the _vspace system space:
// [id, owner, name, engine, field_count, flags, format].
type VSpaceRow struct {
	ID      uint32
	Name    string
	Engine  string
	Format  []map[string]interface{}
}

// VIndexRow is one decoded row of the _vindex system space:
// [space_id, index_id, name, type, opts, parts].
type VIndexRow struct {
	SpaceID uint32
	IndexID uint32
	Name    string
	Type    string
	Parts   []IndexPart
}

// IndexPart is one key part of a _vindex row, prior to resolution
// against the owning space's field list.
type IndexPart struct {
	FieldNo int
}

// Build assembles a Schema snapshot from decoded _vspace/_vindex (and
// optionally _vcollation) rows, at the given server-reported version.
// _vcollation rows are a simple id->name map and may be nil when the
// server predates that space (see the connect-time best-effort fetch).
func Build(version uint64, spaces []VSpaceRow, indexes []VIndexRow, collations map[uint32]string) (*Schema, error) {
	s := &Schema{
		Version:    version,
		byID:       make(map[uint32]*SpaceDef, len(spaces)),
		byName:     make(map[string]*SpaceDef, len(spaces)),
		Collations: collations,
	}

	for _, row := range spaces {
		sd := &SpaceDef{
			ID:            row.ID,
			Name:          row.Name,
			Engine:        row.Engine,
			IndexesByID:   make(map[uint32]*IndexDef),
			IndexesByName: make(map[string]*IndexDef),
			fieldPos:      make(map[string]int, len(row.Format)),
		}
		for pos, f := range row.Format {
			fd := FieldDef{
				Name: stringField(f, "name"),
				Type: stringField(f, "type"),
			}
			if v, ok := f["is_nullable"].(bool); ok {
				fd.IsNullable = v
			}
			if v, ok := f["is_autoincrement"].(bool); ok {
				fd.IsAutoincrement = v
			}
			fd.Collation = stringField(f, "collation")
			sd.Fields = append(sd.Fields, fd)
			if fd.Name != "" {
				sd.fieldPos[fd.Name] = pos
			}
		}
		s.byID[sd.ID] = sd
		s.byName[sd.Name] = sd
	}

	for _, row := range indexes {
		sd, ok := s.byID[row.SpaceID]
		if !ok {
			return nil, fmt.Errorf("schema: index %q references unknown space id %d", row.Name, row.SpaceID)
		}
		ix := &IndexDef{
			ID:       row.IndexID,
			Name:     row.Name,
			Type:     row.Type,
			fieldPos: make(map[string]int, len(row.Parts)),
		}
		for i, p := range row.Parts {
			var fd FieldDef
			if p.FieldNo >= 0 && p.FieldNo < len(sd.Fields) {
				fd = sd.Fields[p.FieldNo]
			}
			ix.Parts = append(ix.Parts, fd)
			if fd.Name != "" {
				ix.fieldPos[fd.Name] = i
			}
		}
		sd.IndexesByID[ix.ID] = ix
		sd.IndexesByName[ix.Name] = ix
	}

	return s, nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
