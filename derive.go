package avro

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modern-go/reflect2"
	"github.com/shopspring/decimal"

	"github.com/avrolib/avro/cache"
)

// Enumer is implemented by host types that represent a finite symbol
// enumeration. AvroSymbols returns every symbol in ordinal order; String (the
// standard fmt.Stringer) must return the symbol name for the current value.
type Enumer interface {
	fmt.Stringer
	AvroSymbols() []string
}

// Duration is the host representation of the Avro duration logical type: a
// fixed(12) payload of three little-endian uint32 components.
type Duration struct {
	Months       uint32
	Days         uint32
	Milliseconds uint32
}

var (
	timeType          = reflect.TypeOf(time.Time{})
	uuidType          = reflect.TypeOf(uuid.UUID{})
	decimalType       = reflect.TypeOf(decimal.Decimal{})
	durationType      = reflect.TypeOf(Duration{})
	clockDurationType = reflect.TypeOf(time.Duration(0))
	enumerType        = reflect.TypeOf((*Enumer)(nil)).Elem()
	unionType         = reflect.TypeOf(Union{})
)

const (
	defaultDecimalPrecision = 18
	defaultDecimalScale     = 2
)

// Derive produces a Schema describing v's type, per the Host Type Bridge
// mapping in §4.3. Struct fields are named from their `avro:"name"` tag when
// present; `avro:"-"` skips a field entirely.
func Derive(v interface{}) (Schema, error) {
	if v == nil {
		return &PrimitiveSchema{typ: Null}, nil
	}
	return deriveType(reflect.TypeOf(v), reflect.StructTag(""))
}

// DeriveType is Derive's direct reflect.Type entry point.
func DeriveType(t reflect.Type) (Schema, error) {
	return deriveType(t, reflect.StructTag(""))
}

func deriveType(t reflect.Type, tag reflect.StructTag) (Schema, error) {
	switch {
	case t == timeType:
		return &PrimitiveSchema{typ: Long, logical: NewLogicalSchema(TimestampMillis)}, nil
	case t == uuidType:
		return &PrimitiveSchema{typ: String, logical: NewLogicalSchema(UUID)}, nil
	case t == decimalType:
		precision := tagInt(tag, "avroPrecision", defaultDecimalPrecision)
		scale := tagInt(tag, "avroScale", defaultDecimalScale)
		return &PrimitiveSchema{typ: Bytes, logical: NewDecimalLogicalSchema(precision, scale)}, nil
	case t == durationType:
		return NewFixedSchema("Duration", "", 12, NewLogicalSchema(DurationLogical))
	case t == clockDurationType:
		return &PrimitiveSchema{typ: Int, logical: NewLogicalSchema(TimeMillis)}, nil
	}
	if t.Implements(enumerType) || reflect.PointerTo(t).Implements(enumerType) {
		return deriveEnum(t)
	}

	switch t.Kind() {
	case reflect.Bool:
		return &PrimitiveSchema{typ: Boolean}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return &PrimitiveSchema{typ: Int}, nil
	case reflect.Int64, reflect.Uint64:
		return &PrimitiveSchema{typ: Long}, nil
	case reflect.Float32:
		return &PrimitiveSchema{typ: Float}, nil
	case reflect.Float64:
		return &PrimitiveSchema{typ: Double}, nil
	case reflect.String:
		return &PrimitiveSchema{typ: String}, nil
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			if t.Kind() == reflect.Array {
				return NewFixedSchema(fixedName(t), "", t.Len(), nil)
			}
			return &PrimitiveSchema{typ: Bytes}, nil
		}
		elem, err := deriveType(t.Elem(), "")
		if err != nil {
			return nil, err
		}
		return NewArraySchema(elem), nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, newErr(ErrSchemaMismatch, "map key must render as text, got %s", t.Key())
		}
		values, err := deriveType(t.Elem(), "")
		if err != nil {
			return nil, err
		}
		return NewMapSchema(values), nil
	case reflect.Ptr:
		null := Schema(&PrimitiveSchema{typ: Null})
		inner, err := deriveType(t.Elem(), tag)
		if err != nil {
			return nil, err
		}
		return NewUnionSchema([]Schema{null, inner})
	case reflect.Struct:
		return deriveRecord(t)
	default:
		return nil, newErr(ErrSchemaMismatch, "unsupported host type %s", t)
	}
}

func deriveEnum(t reflect.Type) (Schema, error) {
	zero := reflect.New(t).Elem()
	en, ok := zero.Interface().(Enumer)
	if !ok {
		ptr := reflect.New(t)
		en, ok = ptr.Interface().(Enumer)
		if !ok {
			return nil, newErr(ErrSchemaMismatch, "type %s implements Enumer inconsistently", t)
		}
	}
	return NewEnumSchema(t.Name(), "", en.AvroSymbols())
}

func deriveRecord(t reflect.Type) (Schema, error) {
	fields := make([]*Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		tag := sf.Tag.Get("avro")
		if tag == "-" {
			continue
		}
		name := sf.Name
		if tag != "" {
			name = strings.SplitN(tag, ",", 2)[0]
		}
		fieldSchema, err := deriveType(sf.Type, sf.Tag)
		if err != nil {
			return nil, err
		}
		def, hasDefault := defaultFor(fieldSchema)
		fields = append(fields, NewField(name, fieldSchema, hasDefault, def, len(fields)))
	}
	name := t.Name()
	if name == "" {
		name = "anonymous"
	}
	return NewRecordSchema(name, "", fields)
}

// defaultFor supplies a zero-value default for union[null, T] fields (the
// common "optional field" shape), matching the teacher's avroDefaultField.
func defaultFor(s Schema) (interface{}, bool) {
	u, ok := Deref(s).(*UnionSchema)
	if !ok || len(u.types) == 0 {
		return nil, false
	}
	if Deref(u.types[0]).Type() == Null {
		return nil, true
	}
	return nil, false
}

func fixedName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return "Fixed"
}

func tagInt(tag reflect.StructTag, key string, def int) int {
	raw, ok := tag.Lookup(key)
	if !ok {
		return def
	}
	n := 0
	for _, c := range raw {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// defaultResolverCacheCapacity bounds how many distinct host types a single
// TypeResolver memoizes before evicting the least-recently-used entry.
const defaultResolverCacheCapacity = 4096

// TypeResolver maps host reflect.Types to their derived Schema and back,
// caching both directions in a bounded LRU so repeated Marshal/Unmarshal
// calls for the same type avoid re-deriving or re-reflecting every time,
// without letting a long-lived process accumulate an unbounded type cache.
// It backs union branch selection on encode (§4.4) and registered-type
// materialization on generic decode (§6.1).
type TypeResolver struct {
	toSchema     *cache.LRU[reflect.Type, Schema]
	toName       *cache.LRU[string, reflect.Type]
	toBranchName *cache.LRU[string, string]
}

// NewTypeResolver builds an empty resolver.
func NewTypeResolver() *TypeResolver {
	toSchema, _ := cache.NewLRU[reflect.Type, Schema](defaultResolverCacheCapacity)
	toName, _ := cache.NewLRU[string, reflect.Type](defaultResolverCacheCapacity)
	toBranchName, _ := cache.NewLRU[string, string](defaultResolverCacheCapacity)
	return &TypeResolver{toSchema: toSchema, toName: toName, toBranchName: toBranchName}
}

// defaultResolver backs the package-level Marshal/Unmarshal dynamic-type
// resolution path: union branch selection on encode, and registered-type
// materialization during generic decode.
var defaultResolver = NewTypeResolver()

// RegisterUnionType associates name (a union branch's full schema name, or a
// primitive type name such as "string") with the zero value of a host type.
// Read and ReadPrefix use it to materialize that type for a union branch
// instead of falling back to a generic map[string]interface{}.
func RegisterUnionType(name string, zeroValue interface{}) {
	defaultResolver.Register(name, zeroValue)
}

// SchemaOf derives (or returns the cached) Schema for v's dynamic type.
func (r *TypeResolver) SchemaOf(v interface{}) (Schema, error) {
	return r.schemaOfType(reflect.TypeOf(v))
}

func (r *TypeResolver) schemaOfType(t reflect.Type) (Schema, error) {
	if s, ok := r.toSchema.Get(t); ok {
		return s, nil
	}
	s, err := deriveType(t, "")
	if err != nil {
		return nil, err
	}
	r.toSchema.Put(t, s)
	return s, nil
}

// Register associates a name (typically a union branch's full schema name)
// with the Go type of zeroValue, so union branch selection and generic
// decode into named types can find a constructor for that name. It also
// indexes the reverse direction under zeroValue's reflect2 type name, so
// selectBranch can recover name for a value whose Go type name diverges
// from its derived Avro schema name (e.g. an unqualified struct name
// registered against a namespaced branch).
func (r *TypeResolver) Register(name string, zeroValue interface{}) {
	r.toName.Put(name, reflect.TypeOf(zeroValue))
	r.toBranchName.Put(r.TypeName(zeroValue), name)
}

// TypeName returns the dynamic-type name used as a union-branch lookup key
// for v, via reflect2 for parity with the teacher's resolver (consistent
// naming for reflect.Type equality across repeated calls).
func (r *TypeResolver) TypeName(v interface{}) string {
	return reflect2.TypeOf(v).String()
}

// Lookup returns the registered Go type for name, if any.
func (r *TypeResolver) Lookup(name string) (reflect.Type, bool) {
	return r.toName.Get(name)
}

// NameFor returns the union branch name registered for v's dynamic type, if
// any, keyed by v's reflect2 type name rather than its derived schema shape.
func (r *TypeResolver) NameFor(v interface{}) (string, bool) {
	return r.toBranchName.Get(r.TypeName(v))
}
