package avro

import "fmt"

// Schema is the algebraic representation of an Avro data shape. Every
// concrete schema type in this package implements it; the binary codec (see
// encode.go, decode.go, size.go, skip.go) dispatches on a type switch over
// Schema rather than on any inheritance hierarchy.
type Schema interface {
	// Type reports which variant this node is.
	Type() Type
	// String renders the schema as canonical Avro JSON.
	String() string
}

// NamedSchema is implemented by the three schema variants that carry a
// fully-qualified name and are eligible for NamedReference back-reference:
// Record, Enum, and Fixed.
type NamedSchema interface {
	Schema
	// Name is the simple (unqualified) name.
	Name() string
	// Namespace is the namespace the name was declared in, possibly empty.
	Namespace() string
	// FullName is Namespace + "." + Name, or just Name if Namespace is empty.
	FullName() string
}

// PrimitiveSchema represents one of the eight Avro primitive types, optionally
// overlaid with a logical type.
type PrimitiveSchema struct {
	typ     Type
	logical *LogicalSchema
}

// NewPrimitiveSchema builds a primitive schema, optionally wrapped by a logical type.
func NewPrimitiveSchema(typ Type, logical *LogicalSchema) *PrimitiveSchema {
	return &PrimitiveSchema{typ: typ, logical: logical}
}

func (s *PrimitiveSchema) Type() Type { return s.typ }

// Logical returns the logical type overlay, or nil if this is a bare primitive.
func (s *PrimitiveSchema) Logical() *LogicalSchema { return s.logical }

func (s *PrimitiveSchema) String() string {
	if s.logical == nil {
		return fmt.Sprintf("%q", string(s.typ))
	}
	return fmt.Sprintf(`{"type":%q,%s}`, string(s.typ), s.logical.jsonFields())
}

// LogicalSchema wraps a base Schema with a domain-level reinterpretation.
// Per §3.1, only decimal carries precision/scale; the rest are bare markers.
type LogicalSchema struct {
	typ       LogicalType
	precision int
	scale     int
}

// NewLogicalSchema builds a non-decimal logical type marker.
func NewLogicalSchema(typ LogicalType) *LogicalSchema {
	return &LogicalSchema{typ: typ}
}

// NewDecimalLogicalSchema builds a decimal logical type with the given
// precision (>=1) and scale (0<=scale<=precision).
func NewDecimalLogicalSchema(precision, scale int) *LogicalSchema {
	return &LogicalSchema{typ: Decimal, precision: precision, scale: scale}
}

func (l *LogicalSchema) Type() LogicalType { return l.typ }
func (l *LogicalSchema) Precision() int    { return l.precision }
func (l *LogicalSchema) Scale() int        { return l.scale }

func (l *LogicalSchema) jsonFields() string {
	if l.typ == Decimal {
		return fmt.Sprintf(`"logicalType":%q,"precision":%d,"scale":%d`, string(l.typ), l.precision, l.scale)
	}
	return fmt.Sprintf(`"logicalType":%q`, string(l.typ))
}

// Name is a fully-qualified Avro name: a bare name plus the namespace it was
// declared in.
type Name struct {
	name      string
	namespace string
}

func (n Name) Name() string      { return n.name }
func (n Name) Namespace() string { return n.namespace }

// FullName is Namespace + "." + Name, or just Name when Namespace is empty.
func (n Name) FullName() string {
	if n.namespace == "" {
		return n.name
	}
	return n.namespace + "." + n.name
}

// Field is one member of a RecordSchema: a name, its schema, and an optional
// default consulted by the codec when an encoded value omits the field.
type Field struct {
	name       string
	doc        string
	typ        Schema
	hasDefault bool
	def        interface{}
	index      int
}

// NewField builds a record field. def is only consulted when hasDefault is true.
func NewField(name string, typ Schema, hasDefault bool, def interface{}, index int) *Field {
	return &Field{name: name, typ: typ, hasDefault: hasDefault, def: def, index: index}
}

func (f *Field) Name() string         { return f.name }
func (f *Field) Doc() string          { return f.doc }
func (f *Field) Type() Schema         { return f.typ }
func (f *Field) HasDefault() bool     { return f.hasDefault }
func (f *Field) Default() interface{} { return f.def }
func (f *Field) Index() int           { return f.index }

func (f *Field) String() string {
	if f.hasDefault {
		return fmt.Sprintf(`{"name":%q,"type":%s,"default":%s}`, f.name, f.typ.String(), jsonEncode(f.def))
	}
	return fmt.Sprintf(`{"name":%q,"type":%s}`, f.name, f.typ.String())
}

// RecordSchema is a product of named fields.
type RecordSchema struct {
	Name
	doc     string
	aliases []string
	fields  []*Field
}

// NewRecordSchema builds a record schema with fields in declaration order.
func NewRecordSchema(name, namespace string, fields []*Field) (*RecordSchema, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.name]; dup {
			return nil, newErr(ErrSchemaMismatch, "duplicate field name %q in record %q", f.name, name)
		}
		seen[f.name] = struct{}{}
	}
	return &RecordSchema{Name: Name{name: name, namespace: namespace}, fields: fields}, nil
}

func (s *RecordSchema) Type() Type        { return Record }
func (s *RecordSchema) Doc() string       { return s.doc }
func (s *RecordSchema) Aliases() []string { return s.aliases }
func (s *RecordSchema) Fields() []*Field  { return s.fields }

// FieldByName returns the field with the given name, or nil if none exists.
func (s *RecordSchema) FieldByName(name string) *Field {
	for _, f := range s.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

func (s *RecordSchema) String() string {
	out := fmt.Sprintf(`{"type":"record","name":%q`, s.FullName())
	if len(s.fields) > 0 {
		out += `,"fields":[`
		for i, f := range s.fields {
			if i > 0 {
				out += ","
			}
			out += f.String()
		}
		out += "]"
	} else {
		out += `,"fields":[]`
	}
	return out + "}"
}

// EnumSchema is a finite, ordered set of symbol names; the wire encoding is
// the symbol's 0-based ordinal.
type EnumSchema struct {
	Name
	doc      string
	symbols  []string
	defaultS string
}

// NewEnumSchema builds an enum schema; symbols must be unique.
func NewEnumSchema(name, namespace string, symbols []string) (*EnumSchema, error) {
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		if _, dup := seen[sym]; dup {
			return nil, newErr(ErrSchemaMismatch, "duplicate symbol %q in enum %q", sym, name)
		}
		seen[sym] = struct{}{}
	}
	return &EnumSchema{Name: Name{name: name, namespace: namespace}, symbols: symbols}, nil
}

func (s *EnumSchema) Type() Type         { return Enum }
func (s *EnumSchema) Doc() string        { return s.doc }
func (s *EnumSchema) Symbols() []string  { return s.symbols }
func (s *EnumSchema) Default() string    { return s.defaultS }
func (s *EnumSchema) Ordinal(sym string) (int, bool) {
	for i, v := range s.symbols {
		if v == sym {
			return i, true
		}
	}
	return 0, false
}

func (s *EnumSchema) String() string {
	out := fmt.Sprintf(`{"type":"enum","name":%q,"symbols":[`, s.FullName())
	for i, sym := range s.symbols {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%q", sym)
	}
	return out + "]}"
}

// ArraySchema is a homogeneous, variable-length sequence.
type ArraySchema struct {
	items Schema
}

func NewArraySchema(items Schema) *ArraySchema { return &ArraySchema{items: items} }

func (s *ArraySchema) Type() Type   { return Array }
func (s *ArraySchema) Items() Schema { return s.items }
func (s *ArraySchema) String() string {
	return fmt.Sprintf(`{"type":"array","items":%s}`, s.items.String())
}

// MapSchema is a mapping from string keys to a homogeneous value type.
type MapSchema struct {
	values Schema
}

func NewMapSchema(values Schema) *MapSchema { return &MapSchema{values: values} }

func (s *MapSchema) Type() Type    { return Map }
func (s *MapSchema) Values() Schema { return s.values }
func (s *MapSchema) String() string {
	return fmt.Sprintf(`{"type":"map","values":%s}`, s.values.String())
}

// UnionSchema is an ordered, tagged sum of branch schemas.
type UnionSchema struct {
	types []Schema
}

// NewUnionSchema validates and builds a union: no duplicate non-named
// branches, at most one of each named type, and no directly-nested unions.
func NewUnionSchema(types []Schema) (*UnionSchema, error) {
	seenPrimitive := make(map[Type]struct{})
	seenNamed := make(map[string]struct{})
	for _, t := range types {
		if t.Type() == Union {
			return nil, newErr(ErrInvalidUnion, "unions may not directly nest")
		}
		if named, ok := t.(NamedSchema); ok {
			if _, dup := seenNamed[named.FullName()]; dup {
				return nil, newErr(ErrInvalidUnion, "duplicate named branch %q", named.FullName())
			}
			seenNamed[named.FullName()] = struct{}{}
			continue
		}
		if ref, ok := t.(*RefSchema); ok {
			if _, dup := seenNamed[ref.name]; dup {
				return nil, newErr(ErrInvalidUnion, "duplicate named branch %q", ref.name)
			}
			seenNamed[ref.name] = struct{}{}
			continue
		}
		if _, dup := seenPrimitive[t.Type()]; dup {
			return nil, newErr(ErrInvalidUnion, "duplicate branch type %q", t.Type())
		}
		seenPrimitive[t.Type()] = struct{}{}
	}
	return &UnionSchema{types: types}, nil
}

func (s *UnionSchema) Type() Type      { return Union }
func (s *UnionSchema) Types() []Schema { return s.types }

func (s *UnionSchema) String() string {
	out := "["
	for i, t := range s.types {
		if i > 0 {
			out += ","
		}
		out += t.String()
	}
	return out + "]"
}

// FixedSchema is a named, fixed-length byte tuple.
type FixedSchema struct {
	Name
	size    int
	logical *LogicalSchema
}

// NewFixedSchema builds a fixed schema of the given non-negative size.
func NewFixedSchema(name, namespace string, size int, logical *LogicalSchema) (*FixedSchema, error) {
	if size < 0 {
		return nil, newErr(ErrSchemaMismatch, "fixed size must be >= 0, got %d", size)
	}
	return &FixedSchema{Name: Name{name: name, namespace: namespace}, size: size, logical: logical}, nil
}

func (s *FixedSchema) Type() Type            { return Fixed }
func (s *FixedSchema) Size() int             { return s.size }
func (s *FixedSchema) Logical() *LogicalSchema { return s.logical }

func (s *FixedSchema) String() string {
	if s.logical == nil {
		return fmt.Sprintf(`{"type":"fixed","name":%q,"size":%d}`, s.FullName(), s.size)
	}
	return fmt.Sprintf(`{"type":"fixed","name":%q,"size":%d,%s}`, s.FullName(), s.size, s.logical.jsonFields())
}

// RefSchema is a NamedReference: a placeholder that resolves, once parsing
// completes, to a Record/Enum/Fixed schema introduced earlier in the tree.
// Keeping references as their own node (rather than aliasing the pointer
// directly) lets the arena print back the short reference form and lets the
// parser build self- and mutually-recursive schemas in one left-to-right pass.
type RefSchema struct {
	name     string
	resolved Schema
}

func newRefSchema(name string) *RefSchema { return &RefSchema{name: name} }

func (r *RefSchema) Type() Type { return Ref }

// Resolved returns the schema this reference points to. It is nil until the
// owning parse/derive pass completes resolution.
func (r *RefSchema) Resolved() Schema { return r.resolved }

func (r *RefSchema) String() string { return fmt.Sprintf("%q", r.name) }

// Deref follows s through any RefSchema wrapper, returning the concrete
// target schema. Every codec operation (write/read/skip/size) must call this
// before switching on Type(), since a schema slot may legitimately hold a
// RefSchema that has not yet been unwrapped by the caller.
func Deref(s Schema) Schema {
	for {
		ref, ok := s.(*RefSchema)
		if !ok || ref.resolved == nil {
			return s
		}
		s = ref.resolved
	}
}
