package avro

import (
	"math"
	"reflect"
	"unicode/utf8"
)

// Marshal derives nothing itself: it pre-sizes v against schema, allocates
// exactly once, and fills the buffer. This is the recommended path (§9
// "pre-size pass vs streaming writes").
func Marshal(schema Schema, v interface{}) ([]byte, error) {
	rv := reflect.ValueOf(v)
	n, err := sizeOf(schema, rv)
	if err != nil {
		return nil, err
	}
	w := newWriter(n)
	if err := encodeValue(schema, rv, w); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

// Size reports the exact encoded length of v under schema, without encoding it.
func Size(schema Schema, v interface{}) (int, error) {
	return sizeOf(schema, reflect.ValueOf(v))
}

func encodeValue(schema Schema, rv reflect.Value, w *writer) error {
	schema = Deref(schema)

	if p, ok := schema.(*PrimitiveSchema); ok && p.logical != nil {
		return encodeLogical(p, rv, w)
	}
	if f, ok := schema.(*FixedSchema); ok && f.logical != nil {
		return encodeFixedLogical(f, rv, w)
	}

	switch s := schema.(type) {
	case *PrimitiveSchema:
		return encodePrimitive(s, rv, w)
	case *RecordSchema:
		return encodeRecord(s, rv, w)
	case *EnumSchema:
		return encodeEnum(s, rv, w)
	case *ArraySchema:
		return encodeArray(s, rv, w)
	case *MapSchema:
		return encodeMap(s, rv, w)
	case *UnionSchema:
		return encodeUnion(s, rv, w)
	case *FixedSchema:
		return encodeFixed(s, rv, w)
	default:
		return newErr(ErrUnknownType, "cannot encode schema type %s", schema.Type())
	}
}

func encodePrimitive(s *PrimitiveSchema, rv reflect.Value, w *writer) error {
	switch s.typ {
	case Null:
		return nil
	case Boolean:
		b, err := asBool(rv)
		if err != nil {
			return err
		}
		if b {
			w.writeByte(1)
		} else {
			w.writeByte(0)
		}
		return nil
	case Int:
		n, err := asInt(rv)
		if err != nil {
			return err
		}
		w.writeVarint(n)
		return nil
	case Long:
		n, err := asInt(rv)
		if err != nil {
			return err
		}
		w.writeVarint(n)
		return nil
	case Float:
		f, err := asFloat(rv)
		if err != nil {
			return err
		}
		w.writeUint32(math.Float32bits(float32(f)))
		return nil
	case Double:
		f, err := asFloat(rv)
		if err != nil {
			return err
		}
		w.writeUint64(math.Float64bits(f))
		return nil
	case Bytes:
		b, err := asBytes(rv)
		if err != nil {
			return err
		}
		w.writeVarint(int64(len(b)))
		w.writeBytes(b)
		return nil
	case String:
		s, err := asString(rv)
		if err != nil {
			return err
		}
		if !utf8.ValidString(s) {
			return newErr(ErrInvalidUTF8, "string value is not valid UTF-8")
		}
		w.writeVarint(int64(len(s)))
		w.writeBytes([]byte(s))
		return nil
	default:
		return newErr(ErrUnknownType, "unexpected primitive %s", s.typ)
	}
}

func encodeLogical(s *PrimitiveSchema, rv reflect.Value, w *writer) error {
	rv = concreteValue(rv)
	switch s.typ {
	case String:
		str, err := logicalEncodeUUID(rv)
		if err != nil {
			return err
		}
		w.writeVarint(int64(len(str)))
		w.writeBytes([]byte(str))
		return nil
	case Bytes:
		raw, err := logicalEncodeDecimalBytes(rv, s.logical, 0)
		if err != nil {
			return err
		}
		w.writeVarint(int64(len(raw)))
		w.writeBytes(raw)
		return nil
	case Int, Long:
		n, err := logicalEncodeInt(rv, s.logical)
		if err != nil {
			return err
		}
		w.writeVarint(n)
		return nil
	default:
		return encodePrimitive(s, rv, w)
	}
}

func encodeFixedLogical(s *FixedSchema, rv reflect.Value, w *writer) error {
	rv = concreteValue(rv)
	switch s.logical.Type() {
	case Decimal:
		raw, err := logicalEncodeDecimalBytes(rv, s.logical, s.size)
		if err != nil {
			return err
		}
		w.writeBytes(raw)
		return nil
	case DurationLogical:
		raw, err := logicalEncodeDuration(rv)
		if err != nil {
			return err
		}
		w.writeBytes(raw)
		return nil
	default:
		return encodeFixed(s, rv, w)
	}
}

func encodeRecord(s *RecordSchema, rv reflect.Value, w *writer) error {
	for _, f := range s.fields {
		fv, ok := fieldValue(rv, f)
		if !ok {
			if !f.hasDefault {
				return newErr(ErrSchemaMismatch, "missing required field %q", f.name)
			}
			dv, err := materializeDefault(f.typ, f.def)
			if err != nil {
				return wrapErr(ErrSchemaMismatch, err, "materializing default for field %q", f.name)
			}
			fv = dv
		}
		if err := encodeValue(f.typ, fv, w); err != nil {
			return err
		}
	}
	return nil
}

func encodeEnum(s *EnumSchema, rv reflect.Value, w *writer) error {
	sym, err := asEnumSymbol(rv)
	if err != nil {
		return err
	}
	ord, ok := s.Ordinal(sym)
	if !ok {
		return newErr(ErrEnumOutOfRange, "symbol %q is not a member of enum %q", sym, s.FullName())
	}
	w.writeVarint(int64(ord))
	return nil
}

func asEnumSymbol(rv reflect.Value) (string, error) {
	rv = concreteValue(rv)
	if en, ok := rv.Interface().(Enumer); ok {
		return en.String(), nil
	}
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return "", newErr(ErrSchemaMismatch, "expected an enum symbol, got %s", rv.Kind())
}

func encodeArray(s *ArraySchema, rv reflect.Value, w *writer) error {
	rv = concreteValue(rv)
	n := sequenceLen(rv)
	if n > 0 {
		w.writeVarint(int64(n))
		for i := 0; i < n; i++ {
			if err := encodeValue(s.items, sequenceAt(rv, i), w); err != nil {
				return err
			}
		}
	}
	w.writeVarint(0)
	return nil
}

func sequenceLen(rv reflect.Value) int {
	if !rv.IsValid() {
		return 0
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len()
	default:
		return 0
	}
}

func sequenceAt(rv reflect.Value, i int) reflect.Value { return rv.Index(i) }

func encodeMap(s *MapSchema, rv reflect.Value, w *writer) error {
	rv = concreteValue(rv)
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		w.writeVarint(0)
		return nil
	}
	keys := rv.MapKeys()
	if len(keys) > 0 {
		w.writeVarint(int64(len(keys)))
		for _, k := range keys {
			key, err := asString(k)
			if err != nil {
				return err
			}
			w.writeVarint(int64(len(key)))
			w.writeBytes([]byte(key))
			if err := encodeValue(s.values, rv.MapIndex(k), w); err != nil {
				return err
			}
		}
	}
	w.writeVarint(0)
	return nil
}

func encodeUnion(s *UnionSchema, rv reflect.Value, w *writer) error {
	concrete := concreteValue(rv)
	if concrete.IsValid() && concrete.Type() == unionType {
		u := concrete.Interface().(Union)
		idx, ok := branchIndexByName(s, u.Branch)
		if !ok {
			return newErr(ErrNoUnionBranch, "no union branch named %q", u.Branch)
		}
		w.writeVarint(int64(idx))
		branch := Deref(s.types[idx])
		if branch.Type() == Null {
			return nil
		}
		return encodeValue(branch, reflect.ValueOf(u.Value), w)
	}

	idx, branch, err := selectBranch(s, rv, -1)
	if err != nil {
		return err
	}
	w.writeVarint(int64(idx))
	if branch.Type() == Null {
		return nil
	}
	return encodeValue(branch, rv, w)
}

func branchIndexByName(s *UnionSchema, name string) (int, bool) {
	for i, t := range s.types {
		dt := Deref(t)
		if named, ok := dt.(NamedSchema); ok && named.FullName() == name {
			return i, true
		}
		if string(dt.Type()) == name {
			return i, true
		}
	}
	return 0, false
}

func encodeFixed(s *FixedSchema, rv reflect.Value, w *writer) error {
	b, err := asBytes(rv)
	if err != nil {
		return err
	}
	if len(b) != s.size {
		return newErr(ErrSchemaMismatch, "fixed %q needs %d bytes, got %d", s.FullName(), s.size, len(b))
	}
	w.writeBytes(b)
	return nil
}

func asBool(rv reflect.Value) (bool, error) {
	rv = concreteValue(rv)
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), nil
	}
	return false, newErr(ErrSchemaMismatch, "expected bool, got %s", rv.Kind())
}

func asInt(rv reflect.Value) (int64, error) {
	rv = concreteValue(rv)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	default:
		return 0, newErr(ErrSchemaMismatch, "expected an integer, got %s", rv.Kind())
	}
}

func asFloat(rv reflect.Value) (float64, error) {
	rv = concreteValue(rv)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	default:
		return 0, newErr(ErrSchemaMismatch, "expected a float, got %s", rv.Kind())
	}
}

func asString(rv reflect.Value) (string, error) {
	rv = concreteValue(rv)
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return "", newErr(ErrSchemaMismatch, "expected a string, got %s", rv.Kind())
}

func asBytes(rv reflect.Value) ([]byte, error) {
	rv = concreteValue(rv)
	if rv.Kind() == reflect.String {
		return []byte(rv.String()), nil
	}
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() == reflect.Uint8 {
		if rv.Kind() == reflect.Array {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return b, nil
		}
		return rv.Bytes(), nil
	}
	return nil, newErr(ErrSchemaMismatch, "expected bytes, got %s", rv.Kind())
}
