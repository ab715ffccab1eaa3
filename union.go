package avro

import "reflect"

// Union wraps a generic-decode result for a union branch so the caller can
// tell which branch was selected on the wire without re-deriving a schema
// for the decoded Go value (ambiguous for e.g. two record branches that
// happen to decode to the same map shape).
type Union struct {
	Branch string
	Value  interface{}
}

// selectBranch implements §4.4 "Branch selection on write": pick the first
// null branch for an absent value, else a branch whose name was registered
// for the value's Go type via RegisterUnionType, else the first branch whose
// named or primitive type matches the value's derived shape, else fail.
// overrideIndex >= 0 bypasses matching entirely (a caller-supplied branch
// index).
func selectBranch(union *UnionSchema, rv reflect.Value, overrideIndex int) (int, Schema, error) {
	if overrideIndex >= 0 {
		if overrideIndex >= len(union.types) {
			return 0, nil, newErr(ErrNoUnionBranch, "branch override %d out of range", overrideIndex)
		}
		return overrideIndex, Deref(union.types[overrideIndex]), nil
	}

	if isNothing(rv) {
		for i, t := range union.types {
			if Deref(t).Type() == Null {
				return i, Deref(t), nil
			}
		}
		return 0, nil, newErr(ErrNoUnionBranch, "value is absent but union has no null branch")
	}

	concrete := rv
	for concrete.Kind() == reflect.Ptr || concrete.Kind() == reflect.Interface {
		concrete = concrete.Elem()
	}

	if concrete.IsValid() && concrete.CanInterface() {
		if name, ok := defaultResolver.NameFor(concrete.Interface()); ok {
			for i, t := range union.types {
				if named, ok2 := Deref(t).(NamedSchema); ok2 && named.FullName() == name {
					return i, Deref(t), nil
				}
			}
		}
	}

	valueSchema, err := defaultResolver.schemaOfType(concrete.Type())
	if err != nil {
		return 0, nil, wrapErr(ErrNoUnionBranch, err, "deriving schema for union value")
	}

	for i, t := range union.types {
		dt := Deref(t)
		if dt.Type() == Null {
			continue
		}
		if named, ok := dt.(NamedSchema); ok {
			if vn, ok2 := valueSchema.(NamedSchema); ok2 && named.FullName() == vn.FullName() {
				return i, dt, nil
			}
			continue
		}
		if branchMatches(dt, valueSchema) {
			return i, dt, nil
		}
	}
	return 0, nil, newErr(ErrNoUnionBranch, "no union branch matches value of type %s", concrete.Type())
}

func isNothing(rv reflect.Value) bool {
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return rv.IsNil()
	default:
		return false
	}
}

// branchMatches compares two non-named schemas for union-branch purposes:
// same base type, and if the branch carries a logical type, the value's
// derived schema must carry the same one (so e.g. a plain "string" branch
// does not greedily swallow a uuid value when a dedicated uuid branch
// exists later in the union).
func branchMatches(branch, value Schema) bool {
	if branch.Type() != value.Type() {
		return false
	}
	bp, bok := branch.(*PrimitiveSchema)
	vp, vok := value.(*PrimitiveSchema)
	if bok && vok {
		switch {
		case bp.logical == nil && vp.logical == nil:
			return true
		case bp.logical != nil && vp.logical != nil:
			return bp.logical.typ == vp.logical.typ
		default:
			return false
		}
	}
	return true
}
