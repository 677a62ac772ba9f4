/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package schema models the client-side cache of Tarantool's data
// dictionary (_vspace/_vindex/_vcollation): the name/id resolution the
// request builder needs to translate logical space/index/field names
// into the integers IPROTO actually carries on the wire.
//
// A Schema is an immutable snapshot identified by a server-reported
// version; Cache holds the current snapshot behind an atomic pointer and
// is swapped wholesale on refetch, never mutated in place.
package schema

import (
	"sync/atomic"

	"github.com/gravwell/tarantool/tarantoolerr"
)

// FieldDef describes one field of a space's format.
type FieldDef struct {
	Name             string
	Type             string
	IsNullable       bool
	IsAutoincrement  bool
	Collation        string
}

// IndexDef describes one index of a space.
type IndexDef struct {
	ID     uint32
	Name   string
	Type   string // tree, hash, rtree, bitset
	Parts  []FieldDef

	fieldPos map[string]int
}

// FieldPosition resolves a key-part field name to its position within
// the index's Parts, for name-based key construction.
func (ix *IndexDef) FieldPosition(name string) (int, bool) {
	p, ok := ix.fieldPos[name]
	return p, ok
}

// SpaceDef describes one space (table).
type SpaceDef struct {
	ID     uint32
	Name   string
	Engine string
	Fields []FieldDef

	IndexesByID   map[uint32]*IndexDef
	IndexesByName map[string]*IndexDef

	fieldPos map[string]int
}

// FieldPosition resolves a space field name to its tuple position, used
// to positionalize a tuple-as-map insert/replace/update argument.
func (sd *SpaceDef) FieldPosition(name string) (int, bool) {
	p, ok := sd.fieldPos[name]
	return p, ok
}

// Index looks up an index by name within this space.
func (sd *SpaceDef) Index(name string) (*IndexDef, error) {
	ix, ok := sd.IndexesByName[name]
	if !ok {
		return nil, tarantoolerr.NewSchemaError("index", name)
	}
	return ix, nil
}

// Schema is one immutable snapshot of the data dictionary.
type Schema struct {
	Version     uint64
	byID        map[uint32]*SpaceDef
	byName      map[string]*SpaceDef
	Collations  map[uint32]string
}

// Space looks up a space by name.
func (s *Schema) Space(name string) (*SpaceDef, error) {
	sd, ok := s.byName[name]
	if !ok {
		return nil, tarantoolerr.NewSchemaError("space", name)
	}
	return sd, nil
}

// SpaceByID looks up a space by numeric id.
func (s *Schema) SpaceByID(id uint32) (*SpaceDef, error) {
	sd, ok := s.byID[id]
	if !ok {
		return nil, tarantoolerr.NewSchemaError("space", spaceIDLabel(id))
	}
	return sd, nil
}

func spaceIDLabel(id uint32) string {
	return "#" + itoa(id)
}

func itoa(id uint32) string {
	if id == 0 {
		return "0"
	}
	var b [10]byte
	i := len(b)
	for id > 0 {
		i--
		b[i] = byte('0' + id%10)
		id /= 10
	}
	return string(b[i:])
}

// Cache holds the current Schema snapshot behind an atomic pointer. The
// zero value is ready to use and reports an empty, version-0 schema
// until the first Store.
type Cache struct {
	ptr atomic.Pointer[Schema]
}

// Load returns the current snapshot. It never returns nil: before the
// first Store, it returns an empty Schema at version 0.
func (c *Cache) Load() *Schema {
	if s := c.ptr.Load(); s != nil {
		return s
	}
	return &Schema{byID: map[uint32]*SpaceDef{}, byName: map[string]*SpaceDef{}}
}

// Store atomically swaps in a newly-fetched snapshot.
func (c *Cache) Store(s *Schema) {
	c.ptr.Store(s)
}

// Version returns the currently cached schema version without loading
// the full snapshot.
func (c *Cache) Version() uint64 {
	return c.Load().Version
}
