/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantool

import (
	"github.com/gravwell/tarantool/tarantool/schema"
	"github.com/gravwell/tarantool/tarantoolerr"
)

// Tuple is an ordered, immutable sequence of decoded values with
// optional field-name lookup when the originating space's format is
// known. Many tuples from the same space share one *schema.SpaceDef.
type Tuple struct {
	values []interface{}
	space  *schema.SpaceDef // nil when no schema was available at decode time
}

// NewTuple wraps a decoded positional array. space may be nil.
func NewTuple(values []interface{}, space *schema.SpaceDef) *Tuple {
	return &Tuple{values: values, space: space}
}

// Len returns the number of fields.
func (t *Tuple) Len() int { return len(t.values) }

// At returns the value at a positional index, or an error if out of range.
func (t *Tuple) At(i int) (interface{}, error) {
	if i < 0 || i >= len(t.values) {
		return nil, &tarantoolerr.ValueError{Context: "tuple index", Reason: "out of range"}
	}
	return t.values[i], nil
}

// Field returns the value of a named field, resolving the name against
// the space's format. Returns a SchemaError if no space format is
// attached or the field name is unknown.
func (t *Tuple) Field(name string) (interface{}, error) {
	if t.space == nil {
		return nil, tarantoolerr.NewSchemaError("field", name)
	}
	pos, ok := t.space.FieldPosition(name)
	if !ok {
		return nil, tarantoolerr.NewSchemaError("field", name)
	}
	return t.At(pos)
}

// Has reports whether v appears anywhere among the tuple's values
// (membership test, using Go equality semantics on decoded values).
func (t *Tuple) Has(v interface{}) bool {
	for _, e := range t.values {
		if e == v {
			return true
		}
	}
	return false
}

// Slice returns a plain copy of the positional values in [lo, hi).
func (t *Tuple) Slice(lo, hi int) []interface{} {
	if lo < 0 {
		lo = 0
	}
	if hi > len(t.values) {
		hi = len(t.values)
	}
	if lo >= hi {
		return nil
	}
	out := make([]interface{}, hi-lo)
	copy(out, t.values[lo:hi])
	return out
}

// All returns a copy of every positional value, for range iteration by
// callers that want a plain slice.
func (t *Tuple) All() []interface{} {
	return t.Slice(0, len(t.values))
}

// Space returns the field-metadata owner, or nil if the tuple was
// decoded without a known schema.
func (t *Tuple) Space() *schema.SpaceDef { return t.space }
