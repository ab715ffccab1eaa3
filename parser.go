package avro

import (
	"encoding/json"
	"os"
)

var primitiveNames = map[string]Type{
	"null": Null, "boolean": Boolean, "int": Int, "long": Long,
	"float": Float, "double": Double, "bytes": Bytes, "string": String,
}

// parseState holds the table of named types already defined earlier in the
// left-to-right JSON traversal, per §3.1's NamedReference invariant. The
// namespace currently in scope is passed alongside it to each parse call.
type parseState struct {
	defined map[string]NamedSchema
}

func newParseState() *parseState {
	return &parseState{defined: make(map[string]NamedSchema)}
}

// Parse builds a Schema from Avro schema JSON text.
func Parse(jsonText string) (Schema, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, wrapErr(ErrUnknownType, err, "invalid schema JSON")
	}
	return newParseState().parse(raw, "")
}

// ParseFile reads pathname and parses its contents as Avro schema JSON.
func ParseFile(pathname string) (Schema, error) {
	buf, err := os.ReadFile(pathname)
	if err != nil {
		return nil, wrapErr(ErrUnknownType, err, "reading schema file %q", pathname)
	}
	return Parse(string(buf))
}

func (ps *parseState) parse(raw interface{}, namespace string) (Schema, error) {
	switch v := raw.(type) {
	case string:
		return ps.resolveName(v, namespace)
	case []interface{}:
		return ps.parseUnion(v, namespace)
	case map[string]interface{}:
		return ps.parseObject(v, namespace)
	default:
		return nil, newErr(ErrUnknownType, "schema node must be a string, array, or object, got %T", raw)
	}
}

func (ps *parseState) resolveName(name, namespace string) (Schema, error) {
	if typ, ok := primitiveNames[name]; ok {
		return &PrimitiveSchema{typ: typ}, nil
	}
	full := FullyQualify(name, namespace)
	if named, ok := ps.defined[full]; ok {
		return newResolvedRef(named), nil
	}
	if named, ok := ps.defined[name]; ok {
		return newResolvedRef(named), nil
	}
	return nil, newErr(ErrUnknownType, "undefined type %q", name)
}

func newResolvedRef(target NamedSchema) *RefSchema {
	return &RefSchema{name: target.FullName(), resolved: target}
}

func (ps *parseState) parseUnion(items []interface{}, namespace string) (Schema, error) {
	types := make([]Schema, len(items))
	for i, item := range items {
		s, err := ps.parse(item, namespace)
		if err != nil {
			return nil, err
		}
		types[i] = s
	}
	return NewUnionSchema(types)
}

func (ps *parseState) parseObject(obj map[string]interface{}, namespace string) (Schema, error) {
	typRaw, ok := obj["type"]
	if !ok {
		return nil, newErr(ErrUnknownType, "schema object missing \"type\"")
	}

	// A nested {"type": <string|object|array>} where the string is itself a
	// primitive/named type and additional keys (logicalType, aliases, ...)
	// decorate it, e.g. {"type":"long","logicalType":"timestamp-millis"}.
	typName, typIsString := typRaw.(string)
	if typIsString {
		if _, isPrimitive := primitiveNames[typName]; isPrimitive {
			return ps.parsePrimitiveObject(typName, obj)
		}
	}

	switch typName {
	case "record":
		return ps.parseRecord(obj, namespace)
	case "enum":
		return ps.parseEnum(obj, namespace)
	case "array":
		items, ok := obj["items"]
		if !ok {
			return nil, newErr(ErrUnknownType, "array schema missing \"items\"")
		}
		itemSchema, err := ps.parse(items, namespace)
		if err != nil {
			return nil, err
		}
		return NewArraySchema(itemSchema), nil
	case "map":
		values, ok := obj["values"]
		if !ok {
			return nil, newErr(ErrUnknownType, "map schema missing \"values\"")
		}
		valueSchema, err := ps.parse(values, namespace)
		if err != nil {
			return nil, err
		}
		return NewMapSchema(valueSchema), nil
	case "fixed":
		return ps.parseFixed(obj, namespace)
	}

	if !typIsString {
		// "type" was itself a nested schema (object or array): unwrap it.
		return ps.parse(typRaw, namespace)
	}
	return nil, newErr(ErrUnknownType, "unrecognized type %q", typName)
}

func (ps *parseState) parsePrimitiveObject(typName string, obj map[string]interface{}) (Schema, error) {
	typ := primitiveNames[typName]
	logical, err := parseLogical(obj, typ)
	if err != nil {
		return nil, err
	}
	return &PrimitiveSchema{typ: typ, logical: logical}, nil
}

// parseLogical extracts a logicalType annotation. Per §4.2, an unrecognized
// logicalType degrades silently to the bare base schema rather than failing.
func parseLogical(obj map[string]interface{}, base Type) (*LogicalSchema, error) {
	raw, ok := obj["logicalType"]
	if !ok {
		return nil, nil
	}
	name, ok := raw.(string)
	if !ok {
		return nil, nil
	}
	lt := LogicalType(name)
	switch lt {
	case Decimal:
		if base != Bytes && base != Fixed {
			return nil, nil
		}
		precision := intProp(obj, "precision", 0)
		scale := intProp(obj, "scale", 0)
		if precision < 1 || scale < 0 || scale > precision {
			return nil, newErr(ErrSchemaMismatch, "invalid decimal precision=%d scale=%d", precision, scale)
		}
		return NewDecimalLogicalSchema(precision, scale), nil
	case UUID:
		if base != String {
			return nil, nil
		}
		return NewLogicalSchema(UUID), nil
	case Date:
		if base != Int {
			return nil, nil
		}
		return NewLogicalSchema(Date), nil
	case TimeMillis:
		if base != Int {
			return nil, nil
		}
		return NewLogicalSchema(TimeMillis), nil
	case TimeMicros:
		if base != Long {
			return nil, nil
		}
		return NewLogicalSchema(TimeMicros), nil
	case TimestampMillis:
		if base != Long {
			return nil, nil
		}
		return NewLogicalSchema(TimestampMillis), nil
	case TimestampMicros:
		if base != Long {
			return nil, nil
		}
		return NewLogicalSchema(TimestampMicros), nil
	case LocalTimestampMillis:
		if base != Long {
			return nil, nil
		}
		return NewLogicalSchema(LocalTimestampMillis), nil
	case LocalTimestampMicros:
		if base != Long {
			return nil, nil
		}
		return NewLogicalSchema(LocalTimestampMicros), nil
	case DurationLogical:
		if base != Fixed {
			return nil, nil
		}
		return NewLogicalSchema(DurationLogical), nil
	default:
		return nil, nil
	}
}

func intProp(obj map[string]interface{}, key string, def int) int {
	v, ok := obj[key]
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		return def
	}
	return int(f)
}

func (ps *parseState) parseRecord(obj map[string]interface{}, namespace string) (*RecordSchema, error) {
	name, ns, err := ps.nameAndNamespace(obj, namespace)
	if err != nil {
		return nil, err
	}
	rec := &RecordSchema{Name: Name{name: name, namespace: ns}}
	if doc, ok := obj["doc"].(string); ok {
		rec.doc = doc
	}
	rec.aliases = stringList(obj["aliases"])
	ps.defined[rec.FullName()] = rec

	fieldsRaw, _ := obj["fields"].([]interface{})
	fields := make([]*Field, 0, len(fieldsRaw))
	for i, fr := range fieldsRaw {
		fobj, ok := fr.(map[string]interface{})
		if !ok {
			return nil, newErr(ErrSchemaMismatch, "record %q field %d is not an object", rec.FullName(), i)
		}
		fname, _ := fobj["name"].(string)
		if fname == "" {
			return nil, newErr(ErrSchemaMismatch, "record %q field %d missing \"name\"", rec.FullName(), i)
		}
		ftypeRaw, ok := fobj["type"]
		if !ok {
			return nil, newErr(ErrSchemaMismatch, "record %q field %q missing \"type\"", rec.FullName(), fname)
		}
		ftype, err := ps.parse(ftypeRaw, ns)
		if err != nil {
			return nil, err
		}
		def, hasDefault := fobj["default"]
		f := NewField(fname, ftype, hasDefault, def, i)
		if doc, ok := fobj["doc"].(string); ok {
			f.doc = doc
		}
		fields = append(fields, f)
	}
	rec.fields = fields
	for _, f := range fields {
		for _, g := range fields {
			if f != g && f.name == g.name {
				return nil, newErr(ErrSchemaMismatch, "duplicate field name %q in record %q", f.name, rec.FullName())
			}
		}
	}
	return rec, nil
}

func (ps *parseState) parseEnum(obj map[string]interface{}, namespace string) (*EnumSchema, error) {
	name, ns, err := ps.nameAndNamespace(obj, namespace)
	if err != nil {
		return nil, err
	}
	symbolsRaw, _ := obj["symbols"].([]interface{})
	symbols := make([]string, 0, len(symbolsRaw))
	seen := make(map[string]struct{}, len(symbolsRaw))
	for _, s := range symbolsRaw {
		sym, _ := s.(string)
		if _, dup := seen[sym]; dup {
			return nil, newErr(ErrSchemaMismatch, "duplicate symbol %q in enum %q", sym, FullyQualify(name, ns))
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	en := &EnumSchema{Name: Name{name: name, namespace: ns}, symbols: symbols}
	if doc, ok := obj["doc"].(string); ok {
		en.doc = doc
	}
	if def, ok := obj["default"].(string); ok {
		en.defaultS = def
	}
	ps.defined[en.FullName()] = en
	return en, nil
}

func (ps *parseState) parseFixed(obj map[string]interface{}, namespace string) (*FixedSchema, error) {
	name, ns, err := ps.nameAndNamespace(obj, namespace)
	if err != nil {
		return nil, err
	}
	size := intProp(obj, "size", -1)
	logical, err := parseLogical(obj, Fixed)
	if err != nil {
		return nil, err
	}
	if logical != nil && logical.typ == DurationLogical && size != 12 {
		return nil, newErr(ErrSchemaMismatch, "duration logical type requires fixed(12), got fixed(%d)", size)
	}
	fx, err := NewFixedSchema(name, ns, size, logical)
	if err != nil {
		return nil, err
	}
	ps.defined[fx.FullName()] = fx
	return fx, nil
}

// nameAndNamespace implements the Avro spec rule that a dotted "name" is a
// full name in its own right and overrides any enclosing or explicit
// "namespace" (splitName's namespace, name split is the inverse of the
// FullyQualify call a writer would have made to produce such a name).
func (ps *parseState) nameAndNamespace(obj map[string]interface{}, enclosingNamespace string) (name, namespace string, err error) {
	nameRaw, _ := obj["name"].(string)
	if nameRaw == "" {
		return "", "", newErr(ErrSchemaMismatch, "named schema missing \"name\"")
	}
	if ns, n := splitName(nameRaw); ns != "" {
		return n, ns, nil
	}
	ns := enclosingNamespace
	if explicit, ok := obj["namespace"].(string); ok {
		ns = explicit
	}
	return nameRaw, ns, nil
}

func stringList(raw interface{}) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// SchemaToJSON renders schema as canonical JSON text.
func SchemaToJSON(schema Schema) string { return schema.String() }
