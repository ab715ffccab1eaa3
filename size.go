package avro

import "reflect"

// sizeOf mirrors encodeValue exactly, byte for byte, so that a pre-sized
// buffer allocated from its result never under- or over-runs during the
// matching encodeValue pass (§4.4 "size/write consistency").
func sizeOf(schema Schema, rv reflect.Value) (int, error) {
	schema = Deref(schema)

	if p, ok := schema.(*PrimitiveSchema); ok && p.logical != nil {
		return sizeLogical(p, rv)
	}
	if f, ok := schema.(*FixedSchema); ok && f.logical != nil {
		return sizeFixedLogical(f, rv)
	}

	switch s := schema.(type) {
	case *PrimitiveSchema:
		return sizePrimitive(s, rv)
	case *RecordSchema:
		return sizeRecord(s, rv)
	case *EnumSchema:
		return sizeEnum(s, rv)
	case *ArraySchema:
		return sizeArray(s, rv)
	case *MapSchema:
		return sizeMap(s, rv)
	case *UnionSchema:
		return sizeUnion(s, rv)
	case *FixedSchema:
		return s.size, nil
	default:
		return 0, newErr(ErrUnknownType, "cannot size schema type %s", schema.Type())
	}
}

func sizePrimitive(s *PrimitiveSchema, rv reflect.Value) (int, error) {
	switch s.typ {
	case Null:
		return 0, nil
	case Boolean:
		return 1, nil
	case Int, Long:
		n, err := asInt(rv)
		if err != nil {
			return 0, err
		}
		return varintSize(n), nil
	case Float:
		return 4, nil
	case Double:
		return 8, nil
	case Bytes:
		b, err := asBytes(rv)
		if err != nil {
			return 0, err
		}
		return varintSize(int64(len(b))) + len(b), nil
	case String:
		str, err := asString(rv)
		if err != nil {
			return 0, err
		}
		return varintSize(int64(len(str))) + len(str), nil
	default:
		return 0, newErr(ErrUnknownType, "unexpected primitive %s", s.typ)
	}
}

func sizeLogical(s *PrimitiveSchema, rv reflect.Value) (int, error) {
	rv = concreteValue(rv)
	switch s.typ {
	case String:
		str, err := logicalEncodeUUID(rv)
		if err != nil {
			return 0, err
		}
		return varintSize(int64(len(str))) + len(str), nil
	case Bytes:
		raw, err := logicalEncodeDecimalBytes(rv, s.logical, 0)
		if err != nil {
			return 0, err
		}
		return varintSize(int64(len(raw))) + len(raw), nil
	case Int, Long:
		n, err := logicalEncodeInt(rv, s.logical)
		if err != nil {
			return 0, err
		}
		return varintSize(n), nil
	default:
		return sizePrimitive(s, rv)
	}
}

func sizeFixedLogical(s *FixedSchema, rv reflect.Value) (int, error) {
	switch s.logical.Type() {
	case Decimal, DurationLogical:
		return s.size, nil
	default:
		return s.size, nil
	}
}

func sizeRecord(s *RecordSchema, rv reflect.Value) (int, error) {
	total := 0
	for _, f := range s.fields {
		fv, ok := fieldValue(rv, f)
		if !ok {
			if !f.hasDefault {
				return 0, newErr(ErrSchemaMismatch, "missing required field %q", f.name)
			}
			dv, err := materializeDefault(f.typ, f.def)
			if err != nil {
				return 0, wrapErr(ErrSchemaMismatch, err, "materializing default for field %q", f.name)
			}
			fv = dv
		}
		n, err := sizeOf(f.typ, fv)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func sizeEnum(s *EnumSchema, rv reflect.Value) (int, error) {
	sym, err := asEnumSymbol(rv)
	if err != nil {
		return 0, err
	}
	ord, ok := s.Ordinal(sym)
	if !ok {
		return 0, newErr(ErrEnumOutOfRange, "symbol %q is not a member of enum %q", sym, s.FullName())
	}
	return varintSize(int64(ord)), nil
}

func sizeArray(s *ArraySchema, rv reflect.Value) (int, error) {
	rv = concreteValue(rv)
	n := sequenceLen(rv)
	total := varintSize(0)
	if n > 0 {
		total = varintSize(int64(n))
		for i := 0; i < n; i++ {
			es, err := sizeOf(s.items, sequenceAt(rv, i))
			if err != nil {
				return 0, err
			}
			total += es
		}
		total += varintSize(0)
	}
	return total, nil
}

func sizeMap(s *MapSchema, rv reflect.Value) (int, error) {
	rv = concreteValue(rv)
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		return varintSize(0), nil
	}
	keys := rv.MapKeys()
	if len(keys) == 0 {
		return varintSize(0), nil
	}
	total := varintSize(int64(len(keys)))
	for _, k := range keys {
		key, err := asString(k)
		if err != nil {
			return 0, err
		}
		total += varintSize(int64(len(key))) + len(key)
		vs, err := sizeOf(s.values, rv.MapIndex(k))
		if err != nil {
			return 0, err
		}
		total += vs
	}
	total += varintSize(0)
	return total, nil
}

func sizeUnion(s *UnionSchema, rv reflect.Value) (int, error) {
	concrete := concreteValue(rv)
	if concrete.IsValid() && concrete.Type() == unionType {
		u := concrete.Interface().(Union)
		idx, ok := branchIndexByName(s, u.Branch)
		if !ok {
			return 0, newErr(ErrNoUnionBranch, "no union branch named %q", u.Branch)
		}
		branch := Deref(s.types[idx])
		total := varintSize(int64(idx))
		if branch.Type() == Null {
			return total, nil
		}
		n, err := sizeOf(branch, reflect.ValueOf(u.Value))
		if err != nil {
			return 0, err
		}
		return total + n, nil
	}

	idx, branch, err := selectBranch(s, rv, -1)
	if err != nil {
		return 0, err
	}
	total := varintSize(int64(idx))
	if branch.Type() == Null {
		return total, nil
	}
	n, err := sizeOf(branch, rv)
	if err != nil {
		return 0, err
	}
	return total + n, nil
}
