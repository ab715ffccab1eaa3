package avro

import (
	"math"
	"reflect"
)

// Unmarshal decodes data under schema into target, which must be a non-nil
// pointer. Composite schemas (record/array/map) also accept a pointer to a
// map[string]interface{}, []interface{}, or map[string]interface{} target for
// callers that do not have a concrete host type.
func Unmarshal(schema Schema, data []byte, target interface{}) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return newErr(ErrSchemaMismatch, "Unmarshal target must be a non-nil pointer")
	}
	r := newReader(data)
	return decodeValue(schema, r, rv.Elem())
}

// Read decodes data under schema into a generic host value tree: nil, bool,
// int32, int64, float32, float64, []byte, string, map[string]interface{},
// []interface{}, or a logical-type host value (time.Time, time.Duration,
// decimal.Decimal, uuid.UUID, Duration). Union branches decode as Union{}
// unless the selected branch is null.
func Read(schema Schema, data []byte) (interface{}, error) {
	r := newReader(data)
	return decodeDynamic(schema, r)
}

// UnmarshalPrefix is Unmarshal for callers that only have a prefix of a
// larger stream (an OCF block, say): it returns the number of bytes
// consumed so the caller can locate the next value.
func UnmarshalPrefix(schema Schema, data []byte, target interface{}) (int, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return 0, newErr(ErrSchemaMismatch, "Unmarshal target must be a non-nil pointer")
	}
	r := newReader(data)
	if err := decodeValue(schema, r, rv.Elem()); err != nil {
		return 0, err
	}
	return r.pos, nil
}

// ReadPrefix is Read for callers walking a larger stream one value at a
// time: it returns the number of bytes consumed alongside the decoded value.
func ReadPrefix(schema Schema, data []byte) (interface{}, int, error) {
	r := newReader(data)
	v, err := decodeDynamic(schema, r)
	if err != nil {
		return nil, 0, err
	}
	return v, r.pos, nil
}

func decodeValue(schema Schema, r *reader, dest reflect.Value) error {
	schema = Deref(schema)

	if dest.IsValid() && dest.Kind() == reflect.Interface && dest.NumMethod() == 0 {
		v, err := decodeDynamic(schema, r)
		if err != nil {
			return err
		}
		if v == nil {
			dest.Set(reflect.Zero(dest.Type()))
			return nil
		}
		dest.Set(reflect.ValueOf(v))
		return nil
	}

	if p, ok := schema.(*PrimitiveSchema); ok && p.logical != nil {
		return decodePrimitiveLogicalInto(p, r, dest)
	}
	if f, ok := schema.(*FixedSchema); ok && f.logical != nil {
		return decodeFixedLogicalInto(f, r, dest)
	}

	switch s := schema.(type) {
	case *PrimitiveSchema:
		return decodePrimitiveInto(s, r, dest)
	case *RecordSchema:
		return decodeRecordInto(s, r, dest)
	case *EnumSchema:
		return decodeEnumInto(s, r, dest)
	case *ArraySchema:
		return decodeArrayInto(s, r, dest)
	case *MapSchema:
		return decodeMapInto(s, r, dest)
	case *UnionSchema:
		return decodeUnionInto(s, r, dest)
	case *FixedSchema:
		return decodeFixedInto(s, r, dest)
	default:
		return newErr(ErrUnknownType, "cannot decode schema type %s", schema.Type())
	}
}

func decodePrimitiveInto(s *PrimitiveSchema, r *reader, dest reflect.Value) error {
	v, err := decodePrimitive(s, r)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return assign(dest, reflect.ValueOf(v))
}

func decodePrimitive(s *PrimitiveSchema, r *reader) (interface{}, error) {
	switch s.typ {
	case Null:
		return nil, nil
	case Boolean:
		b, err := r.readByte()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case Int:
		n, err := r.readVarint()
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case Long:
		n, err := r.readVarint()
		if err != nil {
			return nil, err
		}
		return n, nil
	case Float:
		u, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(u), nil
	case Double:
		u, err := r.readUint64()
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(u), nil
	case Bytes:
		n, err := r.readVarint()
		if err != nil {
			return nil, err
		}
		b, err := r.readN(int(n))
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case String:
		n, err := r.readVarint()
		if err != nil {
			return nil, err
		}
		b, err := r.readN(int(n))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return nil, newErr(ErrUnknownType, "unexpected primitive %s", s.typ)
	}
}

func decodePrimitiveLogicalInto(s *PrimitiveSchema, r *reader, dest reflect.Value) error {
	v, err := decodePrimitiveLogical(s, r)
	if err != nil {
		return err
	}
	return assign(dest, reflect.ValueOf(v))
}

func decodePrimitiveLogical(s *PrimitiveSchema, r *reader) (interface{}, error) {
	switch s.typ {
	case String:
		n, err := r.readVarint()
		if err != nil {
			return nil, err
		}
		b, err := r.readN(int(n))
		if err != nil {
			return nil, err
		}
		return logicalDecodeUUID(string(b))
	case Bytes:
		n, err := r.readVarint()
		if err != nil {
			return nil, err
		}
		b, err := r.readN(int(n))
		if err != nil {
			return nil, err
		}
		return logicalDecodeDecimal(b, s.logical), nil
	case Int, Long:
		n, err := r.readVarint()
		if err != nil {
			return nil, err
		}
		return logicalDecodeInt(n, s.logical), nil
	default:
		return decodePrimitive(s, r)
	}
}

func decodeFixedLogicalInto(s *FixedSchema, r *reader, dest reflect.Value) error {
	b, err := r.readN(s.size)
	if err != nil {
		return err
	}
	switch s.logical.Type() {
	case Decimal:
		return assign(dest, reflect.ValueOf(logicalDecodeDecimal(b, s.logical)))
	case DurationLogical:
		return assign(dest, reflect.ValueOf(logicalDecodeDuration(b)))
	default:
		out := make([]byte, len(b))
		copy(out, b)
		return assign(dest, reflect.ValueOf(out))
	}
}

func decodeRecordInto(s *RecordSchema, r *reader, dest reflect.Value) error {
	dest = concreteValue(dest)
	if dest.Kind() == reflect.Map {
		if dest.IsNil() {
			dest.Set(reflect.MakeMap(dest.Type()))
		}
		for _, f := range s.fields {
			v, err := decodeDynamic(f.typ, r)
			if err != nil {
				return err
			}
			if v == nil {
				dest.SetMapIndex(reflect.ValueOf(f.name), reflect.Zero(dest.Type().Elem()))
				continue
			}
			dest.SetMapIndex(reflect.ValueOf(f.name), reflect.ValueOf(v))
		}
		return nil
	}
	if dest.Kind() != reflect.Struct {
		return newErr(ErrSchemaMismatch, "cannot decode record %q into %s", s.FullName(), dest.Kind())
	}
	for _, f := range s.fields {
		fv, ok := structFieldByName(dest, f.name)
		if !ok {
			if err := skipValue(f.typ, r); err != nil {
				return err
			}
			continue
		}
		if err := decodeValue(f.typ, r, fv); err != nil {
			return err
		}
	}
	return nil
}

func decodeEnumInto(s *EnumSchema, r *reader, dest reflect.Value) error {
	sym, err := decodeEnum(s, r)
	if err != nil {
		return err
	}
	return assign(dest, reflect.ValueOf(sym))
}

func decodeEnum(s *EnumSchema, r *reader) (string, error) {
	ord, err := r.readVarint()
	if err != nil {
		return "", err
	}
	if ord < 0 || int(ord) >= len(s.symbols) {
		return "", newErr(ErrEnumOutOfRange, "ordinal %d out of range for enum %q", ord, s.FullName())
	}
	return s.symbols[ord], nil
}

func decodeArrayInto(s *ArraySchema, r *reader, dest reflect.Value) error {
	dest = concreteValue(dest)
	if dest.Kind() != reflect.Slice {
		return newErr(ErrSchemaMismatch, "cannot decode array into %s", dest.Kind())
	}
	out := reflect.MakeSlice(dest.Type(), 0, 0)
	for {
		n, err := r.readVarint()
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		count := n
		if count < 0 {
			if _, err := r.readVarint(); err != nil { // byte_length, unused when materializing
				return err
			}
			count = -count
		}
		for i := int64(0); i < count; i++ {
			elem := reflect.New(dest.Type().Elem()).Elem()
			if err := decodeValue(s.items, r, elem); err != nil {
				return err
			}
			out = reflect.Append(out, elem)
		}
	}
	dest.Set(out)
	return nil
}

func decodeMapInto(s *MapSchema, r *reader, dest reflect.Value) error {
	dest = concreteValue(dest)
	if dest.Kind() != reflect.Map {
		return newErr(ErrSchemaMismatch, "cannot decode map into %s", dest.Kind())
	}
	out := reflect.MakeMap(dest.Type())
	for {
		n, err := r.readVarint()
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		count := n
		if count < 0 {
			if _, err := r.readVarint(); err != nil {
				return err
			}
			count = -count
		}
		for i := int64(0); i < count; i++ {
			kn, err := r.readVarint()
			if err != nil {
				return err
			}
			kb, err := r.readN(int(kn))
			if err != nil {
				return err
			}
			val := reflect.New(dest.Type().Elem()).Elem()
			if err := decodeValue(s.values, r, val); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(string(kb)), val)
		}
	}
	dest.Set(out)
	return nil
}

func decodeUnionInto(s *UnionSchema, r *reader, dest reflect.Value) error {
	idx, err := r.readVarint()
	if err != nil {
		return err
	}
	if idx < 0 || int(idx) >= len(s.types) {
		return newErr(ErrNoUnionBranch, "union branch index %d out of range", idx)
	}
	branch := Deref(s.types[idx])

	if branch.Type() == Null {
		switch dest.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
			dest.Set(reflect.Zero(dest.Type()))
			return nil
		default:
			return nil
		}
	}

	if dest.Kind() == reflect.Ptr {
		p := reflect.New(dest.Type().Elem())
		if err := decodeValue(branch, r, p.Elem()); err != nil {
			return err
		}
		dest.Set(p)
		return nil
	}
	return decodeValue(branch, r, dest)
}

func decodeFixedInto(s *FixedSchema, r *reader, dest reflect.Value) error {
	b, err := r.readN(s.size)
	if err != nil {
		return err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return assign(dest, reflect.ValueOf(out))
}

// decodeDynamic decodes schema into a generic host value tree, with no
// target type to guide construction.
func decodeDynamic(schema Schema, r *reader) (interface{}, error) {
	schema = Deref(schema)

	if p, ok := schema.(*PrimitiveSchema); ok && p.logical != nil {
		return decodePrimitiveLogical(p, r)
	}
	if f, ok := schema.(*FixedSchema); ok && f.logical != nil {
		b, err := r.readN(f.size)
		if err != nil {
			return nil, err
		}
		switch f.logical.Type() {
		case Decimal:
			return logicalDecodeDecimal(b, f.logical), nil
		case DurationLogical:
			return logicalDecodeDuration(b), nil
		default:
			out := make([]byte, len(b))
			copy(out, b)
			return out, nil
		}
	}

	switch s := schema.(type) {
	case *PrimitiveSchema:
		return decodePrimitive(s, r)
	case *RecordSchema:
		return decodeRecordDynamic(s, r)
	case *EnumSchema:
		return decodeEnum(s, r)
	case *ArraySchema:
		return decodeArrayDynamic(s, r)
	case *MapSchema:
		return decodeMapDynamic(s, r)
	case *UnionSchema:
		return decodeUnionDynamic(s, r)
	case *FixedSchema:
		b, err := r.readN(s.size)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	default:
		return nil, newErr(ErrUnknownType, "cannot decode schema type %s", schema.Type())
	}
}

func decodeRecordDynamic(s *RecordSchema, r *reader) (interface{}, error) {
	out := make(map[string]interface{}, len(s.fields))
	for _, f := range s.fields {
		v, err := decodeDynamic(f.typ, r)
		if err != nil {
			return nil, err
		}
		out[f.name] = v
	}
	return out, nil
}

func decodeArrayDynamic(s *ArraySchema, r *reader) (interface{}, error) {
	out := []interface{}{}
	for {
		n, err := r.readVarint()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		count := n
		if count < 0 {
			if _, err := r.readVarint(); err != nil {
				return nil, err
			}
			count = -count
		}
		for i := int64(0); i < count; i++ {
			v, err := decodeDynamic(s.items, r)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func decodeMapDynamic(s *MapSchema, r *reader) (interface{}, error) {
	out := map[string]interface{}{}
	for {
		n, err := r.readVarint()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		count := n
		if count < 0 {
			if _, err := r.readVarint(); err != nil {
				return nil, err
			}
			count = -count
		}
		for i := int64(0); i < count; i++ {
			kn, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			kb, err := r.readN(int(kn))
			if err != nil {
				return nil, err
			}
			v, err := decodeDynamic(s.values, r)
			if err != nil {
				return nil, err
			}
			out[string(kb)] = v
		}
	}
	return out, nil
}

func decodeUnionDynamic(s *UnionSchema, r *reader) (interface{}, error) {
	idx, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	if idx < 0 || int(idx) >= len(s.types) {
		return nil, newErr(ErrNoUnionBranch, "union branch index %d out of range", idx)
	}
	branch := Deref(s.types[idx])
	if branch.Type() == Null {
		return nil, nil
	}
	name := branchName(branch)

	if t, ok := defaultResolver.Lookup(name); ok {
		p := reflect.New(t)
		if err := decodeValue(branch, r, p.Elem()); err != nil {
			return nil, err
		}
		return Union{Branch: name, Value: p.Elem().Interface()}, nil
	}

	v, err := decodeDynamic(branch, r)
	if err != nil {
		return nil, err
	}
	return Union{Branch: name, Value: v}, nil
}

func branchName(s Schema) string {
	if named, ok := s.(NamedSchema); ok {
		return named.FullName()
	}
	return string(s.Type())
}
