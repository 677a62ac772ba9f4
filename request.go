/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantool

import (
	"github.com/gravwell/tarantool/tarantool/iproto"
	"github.com/gravwell/tarantool/tarantool/schema"
	"github.com/gravwell/tarantool/tarantoolerr"
)

// resolveSpace translates a string-or-id space reference into a
// *schema.SpaceDef and its numeric id.
func resolveSpace(s *schema.Schema, space interface{}) (*schema.SpaceDef, uint32, error) {
	switch v := space.(type) {
	case string:
		sd, err := s.Space(v)
		if err != nil {
			return nil, 0, err
		}
		return sd, sd.ID, nil
	case int:
		id := uint32(v)
		sd, _ := s.SpaceByID(id) // best-effort: unknown numeric space ids still address the server
		return sd, id, nil
	case int64:
		return resolveSpace(s, int(v))
	case uint32:
		return resolveSpace(s, int(v))
	default:
		return nil, 0, &tarantoolerr.TypeError{Context: "space reference", Value: space}
	}
}

// resolveIndex translates a string-or-id index reference within sd (if
// sd is known) into a numeric index id.
func resolveIndex(sd *schema.SpaceDef, index interface{}) (uint32, error) {
	if index == nil {
		return 0, nil
	}
	switch v := index.(type) {
	case string:
		if sd == nil {
			return 0, tarantoolerr.NewSchemaError("index", v)
		}
		ix, err := sd.Index(v)
		if err != nil {
			return 0, err
		}
		return ix.ID, nil
	case int:
		return uint32(v), nil
	case int64:
		return resolveIndex(sd, int(v))
	case uint32:
		return v, nil
	default:
		return 0, &tarantoolerr.TypeError{Context: "index reference", Value: index}
	}
}

// positionalizeTuple converts a tuple-as-map (field name -> value) into
// a positional array using sd's field-name->position map. Missing
// positions become explicit nil; trailing nils are trimmed. A plain
// slice or array is passed through unchanged.
func positionalizeTuple(sd *schema.SpaceDef, t interface{}) ([]interface{}, error) {
	switch v := t.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		if sd == nil {
			return nil, &tarantoolerr.TypeError{Context: "tuple-as-map without schema", Value: t}
		}
		maxPos := -1
		for name := range v {
			pos, ok := sd.FieldPosition(name)
			if !ok {
				return nil, tarantoolerr.NewSchemaError("field", name)
			}
			if pos > maxPos {
				maxPos = pos
			}
		}
		out := make([]interface{}, maxPos+1)
		for name, val := range v {
			pos, _ := sd.FieldPosition(name)
			out[pos] = val
		}
		return trimTrailingNils(out), nil
	default:
		return nil, &tarantoolerr.TypeError{Context: "tuple", Value: t}
	}
}

func trimTrailingNils(v []interface{}) []interface{} {
	i := len(v)
	for i > 0 && v[i-1] == nil {
		i--
	}
	return v[:i]
}

// updateOp is one element of an update/upsert operation list:
// [opcode, field, args...].
var validUpdateOpcodes = map[string]bool{
	"=": true, "+": true, "-": true, "&": true, "|": true,
	"^": true, ":": true, "!": true, "#": true,
}

// positionalizeOps resolves string field specifiers within an
// update/upsert operation list to integer positions against sd's
// format, validating opcode shape (splice "\":\"" must have exactly
// five elements) along the way.
func positionalizeOps(sd *schema.SpaceDef, ops []interface{}) ([]interface{}, error) {
	out := make([]interface{}, len(ops))
	for i, rawOp := range ops {
		op, ok := rawOp.([]interface{})
		if !ok || len(op) < 2 {
			return nil, &tarantoolerr.ValueError{Context: "update operation", Reason: "must be [opcode, field, args...]"}
		}
		opcode, ok := op[0].(string)
		if !ok || !validUpdateOpcodes[opcode] {
			return nil, &tarantoolerr.ValueError{Context: "update operation", Reason: "unknown opcode"}
		}
		if opcode == ":" && len(op) != 5 {
			return nil, &tarantoolerr.ValueError{Context: "splice operation", Reason: "must have exactly five elements"}
		}
		field, err := resolveFieldSpec(sd, op[1])
		if err != nil {
			return nil, err
		}
		resolved := make([]interface{}, len(op))
		copy(resolved, op)
		resolved[1] = field
		out[i] = resolved
	}
	return out, nil
}

func resolveFieldSpec(sd *schema.SpaceDef, field interface{}) (interface{}, error) {
	switch v := field.(type) {
	case string:
		if sd == nil {
			return nil, tarantoolerr.NewSchemaError("field", v)
		}
		pos, ok := sd.FieldPosition(v)
		if !ok {
			return nil, tarantoolerr.NewSchemaError("field", v)
		}
		return pos, nil
	case int, int64, uint32:
		return v, nil
	default:
		return nil, &tarantoolerr.TypeError{Context: "update field specifier", Value: field}
	}
}

// resolveIterator accepts an integer, a canonical name string, or
// anything else and returns a TypeError for the rest.
func resolveIterator(it interface{}) (int, error) {
	switch v := it.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		code, ok := iproto.IteratorByName(v)
		if !ok {
			return 0, &tarantoolerr.ValueError{Context: "iterator", Reason: "unknown iterator name " + v}
		}
		return code, nil
	default:
		return 0, &tarantoolerr.TypeError{Context: "iterator", Value: it}
	}
}

// resolveKey accepts a sequence or a tuple-as-map key and positionalizes
// it the same way a tuple is positionalized.
func resolveKey(sd *schema.SpaceDef, key interface{}) ([]interface{}, error) {
	return positionalizeTuple(sd, key)
}
