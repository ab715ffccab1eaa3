package avro

import (
	"reflect"
	"strings"
)

// fieldValue extracts the value backing record field f out of rv, which may
// be a typed struct (matched by `avro` tag or field name) or a dynamic
// map[string]interface{} / map[string]any record (matched by key). The bool
// result is false when the value is absent, in which case the caller should
// fall back to the field's default, if any.
func fieldValue(rv reflect.Value, f *Field) (reflect.Value, bool) {
	rv = concreteValue(rv)
	switch rv.Kind() {
	case reflect.Struct:
		return structFieldByName(rv, f.name)
	case reflect.Map:
		v := rv.MapIndex(reflect.ValueOf(f.name))
		if !v.IsValid() {
			return reflect.Value{}, false
		}
		return v, true
	default:
		return reflect.Value{}, false
	}
}

// concreteValue follows pointers and interfaces down to the first non-nil
// concrete value, or returns the last nil/invalid value seen.
func concreteValue(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return rv
		}
		rv = rv.Elem()
	}
	return rv
}

func structFieldByName(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		tag := sf.Tag.Get("avro")
		if tag == "-" {
			continue
		}
		tagName := tag
		if idx := strings.IndexByte(tag, ','); idx >= 0 {
			tagName = tag[:idx]
		}
		if tagName == name || (tagName == "" && strings.EqualFold(sf.Name, name)) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setField writes val into rv's field/entry named by f, allocating a map
// entry or growing a struct field as needed. dest must be addressable for
// the struct case (Unmarshal always passes target.Elem()).
func setField(dest reflect.Value, f *Field, val reflect.Value) error {
	dest = concreteValue(dest)
	switch dest.Kind() {
	case reflect.Struct:
		fv, ok := structFieldByName(dest, f.name)
		if !ok {
			return nil // schema has a field the target type does not: ignore
		}
		return assign(fv, val)
	case reflect.Map:
		if dest.IsNil() {
			return newErr(ErrSchemaMismatch, "cannot set field %q on nil map", f.name)
		}
		dest.SetMapIndex(reflect.ValueOf(f.name), val)
		return nil
	default:
		return newErr(ErrSchemaMismatch, "cannot decode record into %s", dest.Kind())
	}
}

// assign copies val into fv, allocating a pointer target when fv is a
// pointer and val is not, and boxing into an interface{} slot when needed.
func assign(fv, val reflect.Value) error {
	if !val.IsValid() {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	if fv.Kind() == reflect.Interface {
		fv.Set(val)
		return nil
	}
	if fv.Kind() == reflect.Ptr && val.Kind() != reflect.Ptr {
		p := reflect.New(fv.Type().Elem())
		if val.Type().AssignableTo(fv.Type().Elem()) {
			p.Elem().Set(val)
		} else if val.Type().ConvertibleTo(fv.Type().Elem()) {
			p.Elem().Set(val.Convert(fv.Type().Elem()))
		} else {
			return newErr(ErrSchemaMismatch, "cannot assign %s to %s", val.Type(), fv.Type().Elem())
		}
		fv.Set(p)
		return nil
	}
	if val.Type().AssignableTo(fv.Type()) {
		fv.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(fv.Type()) {
		fv.Set(val.Convert(fv.Type()))
		return nil
	}
	return newErr(ErrSchemaMismatch, "cannot assign %s to %s", val.Type(), fv.Type())
}

// materializeDefault converts a field's opaque JSON default (per §4.2,
// retained verbatim from the parsed schema) into a reflect.Value shaped like
// schema, for use when the write-side value omits the field.
func materializeDefault(schema Schema, raw interface{}) (reflect.Value, error) {
	schema = Deref(schema)
	switch s := schema.(type) {
	case *UnionSchema:
		if len(s.types) == 0 {
			return reflect.Value{}, newErr(ErrSchemaMismatch, "empty union has no default shape")
		}
		return materializeDefault(s.types[0], raw)
	case *PrimitiveSchema:
		return materializePrimitiveDefault(s, raw)
	case *EnumSchema:
		sym, _ := raw.(string)
		return reflect.ValueOf(sym), nil
	case *FixedSchema:
		str, _ := raw.(string)
		return reflect.ValueOf(latin1ToBytes(str)), nil
	case *ArraySchema:
		items, _ := raw.([]interface{})
		out := make([]interface{}, len(items))
		for i, it := range items {
			v, err := materializeDefault(s.items, it)
			if err != nil {
				return reflect.Value{}, err
			}
			out[i] = v.Interface()
		}
		return reflect.ValueOf(out), nil
	case *MapSchema:
		obj, _ := raw.(map[string]interface{})
		out := make(map[string]interface{}, len(obj))
		for k, v := range obj {
			mv, err := materializeDefault(s.values, v)
			if err != nil {
				return reflect.Value{}, err
			}
			out[k] = mv.Interface()
		}
		return reflect.ValueOf(out), nil
	case *RecordSchema:
		obj, _ := raw.(map[string]interface{})
		out := make(map[string]interface{}, len(s.fields))
		for _, f := range s.fields {
			if v, ok := obj[f.name]; ok {
				mv, err := materializeDefault(f.typ, v)
				if err != nil {
					return reflect.Value{}, err
				}
				out[f.name] = mv.Interface()
			} else if f.hasDefault {
				mv, err := materializeDefault(f.typ, f.def)
				if err != nil {
					return reflect.Value{}, err
				}
				out[f.name] = mv.Interface()
			}
		}
		return reflect.ValueOf(out), nil
	default:
		return reflect.Value{}, newErr(ErrSchemaMismatch, "no default shape for schema type %s", schema.Type())
	}
}

func materializePrimitiveDefault(s *PrimitiveSchema, raw interface{}) (reflect.Value, error) {
	switch s.typ {
	case Null:
		return reflect.ValueOf((*int)(nil)).Elem(), nil
	case Boolean:
		b, _ := raw.(bool)
		return reflect.ValueOf(b), nil
	case Int:
		f, _ := raw.(float64)
		return reflect.ValueOf(int32(f)), nil
	case Long:
		f, _ := raw.(float64)
		return reflect.ValueOf(int64(f)), nil
	case Float:
		f, _ := raw.(float64)
		return reflect.ValueOf(float32(f)), nil
	case Double:
		f, _ := raw.(float64)
		return reflect.ValueOf(f), nil
	case String:
		str, _ := raw.(string)
		return reflect.ValueOf(str), nil
	case Bytes:
		str, _ := raw.(string)
		return reflect.ValueOf(latin1ToBytes(str)), nil
	default:
		return reflect.Value{}, newErr(ErrSchemaMismatch, "unsupported default for primitive %s", s.typ)
	}
}

// latin1ToBytes decodes an Avro JSON bytes/fixed default, which spells each
// byte 0-255 as one UTF-16 code unit, back into raw bytes.
func latin1ToBytes(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(r))
	}
	return out
}
