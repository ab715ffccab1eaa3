// Package avrogen implements the code generator (§4.6): a pure function
// from a parsed schema to Go source text declaring the structs, enums, and
// fixed-byte types a Host Type Bridge needs, with no dependency on the
// codec or OCF packages it describes types for.
package avrogen

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"

	"github.com/avrolib/avro"
)

// Options configures Emit.
type Options struct {
	// PackageName wraps the output in this package, defaulting to "avrogen"
	// when empty (§6.5's optional module_name argument).
	PackageName string
}

// Emit walks schema and renders named types in dependency order (a type is
// emitted only after every type its fields reference), one Go type per
// Avro record/enum/fixed definition reachable from schema. The result is
// formatted with go/format so it's directly writable to a .go file.
func Emit(schema avro.Schema, opts Options) (string, error) {
	g := &generator{
		defs: make(map[string]string),
		seen: make(map[string]bool),
	}
	if err := g.collect(schema); err != nil {
		return "", err
	}

	pkg := opts.PackageName
	if pkg == "" {
		pkg = "avrogen"
	}

	var body bytes.Buffer
	for _, name := range g.order {
		body.WriteString(g.defs[name])
		body.WriteString("\n")
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "package %s\n\n", sanitizeIdent(pkg))
	if imports := g.importLines(); len(imports) > 0 {
		out.WriteString("import (\n")
		for _, imp := range imports {
			fmt.Fprintf(&out, "\t%q\n", imp)
		}
		out.WriteString(")\n\n")
	}
	out.Write(body.Bytes())

	formatted, err := format.Source(out.Bytes())
	if err != nil {
		return "", avro.WrapError(avro.ErrSchemaMismatch, err, "generated source failed to parse")
	}
	return string(formatted), nil
}

// generator accumulates named-type definitions in dependency order while
// walking a schema tree once.
type generator struct {
	order []string
	defs  map[string]string
	seen  map[string]bool

	needsTime    bool
	needsUUID    bool
	needsDecimal bool
	needsAvro    bool
}

func (g *generator) importLines() []string {
	var imports []string
	if g.needsTime {
		imports = append(imports, "time")
	}
	if g.needsUUID {
		imports = append(imports, "github.com/google/uuid")
	}
	if g.needsDecimal {
		imports = append(imports, "github.com/shopspring/decimal")
	}
	if g.needsAvro {
		imports = append(imports, "github.com/avrolib/avro")
	}
	return imports
}

// collect walks s, recursing into every schema a named type's fields
// reference before recording that named type's own definition, so the
// emitted order never forward-references a type it depends on (except for
// self- or mutually-recursive records, which Go's struct-pointer fields
// permit regardless of declaration order).
func (g *generator) collect(s avro.Schema) error {
	s = avro.Deref(s)
	switch t := s.(type) {
	case *avro.RecordSchema:
		return g.collectRecord(t)
	case *avro.EnumSchema:
		return g.collectEnum(t)
	case *avro.FixedSchema:
		return g.collectFixed(t)
	case *avro.ArraySchema:
		return g.collect(t.Items())
	case *avro.MapSchema:
		return g.collect(t.Values())
	case *avro.UnionSchema:
		for _, branch := range t.Types() {
			if avro.Deref(branch).Type() == avro.Null {
				continue
			}
			if err := g.collect(branch); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *generator) collectRecord(s *avro.RecordSchema) error {
	if g.seen[s.FullName()] {
		return nil
	}
	g.seen[s.FullName()] = true // mark before recursing: permits self-reference
	for _, f := range s.Fields() {
		if err := g.collect(f.Type()); err != nil {
			return err
		}
	}
	def, err := g.renderRecord(s)
	if err != nil {
		return err
	}
	g.order = append(g.order, s.FullName())
	g.defs[s.FullName()] = def
	return nil
}

func (g *generator) collectEnum(s *avro.EnumSchema) error {
	if g.seen[s.FullName()] {
		return nil
	}
	g.seen[s.FullName()] = true
	g.order = append(g.order, s.FullName())
	g.defs[s.FullName()] = g.renderEnum(s)
	return nil
}

func (g *generator) collectFixed(s *avro.FixedSchema) error {
	if g.seen[s.FullName()] {
		return nil
	}
	g.seen[s.FullName()] = true
	if s.Logical() != nil {
		// decimal and duration fixed bases map straight to decimal.Decimal /
		// avro.Duration; they don't need a named byte-array type of their own.
		return nil
	}
	g.order = append(g.order, s.FullName())
	g.defs[s.FullName()] = fmt.Sprintf("type %s [%d]byte\n", sanitizeExported(s.Name()), s.Size())
	return nil
}

func (g *generator) renderRecord(s *avro.RecordSchema) (string, error) {
	var b strings.Builder
	typeName := sanitizeExported(s.Name())
	if doc := s.Doc(); doc != "" {
		fmt.Fprintf(&b, "// %s %s\n", typeName, doc)
	}
	fmt.Fprintf(&b, "type %s struct {\n", typeName)
	for _, f := range s.Fields() {
		goType, err := g.goType(f.Type())
		if err != nil {
			return "", err
		}
		if doc := f.Doc(); doc != "" {
			fmt.Fprintf(&b, "\t// %s\n", doc)
		}
		fmt.Fprintf(&b, "\t%s %s `avro:%q`\n", sanitizeExported(f.Name()), goType, f.Name())
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// renderEnum emits a string-based type plus one constant per symbol, with
// String and AvroSymbols methods so the type satisfies avro.Enumer and can
// round-trip through Derive without a schema on hand.
func (g *generator) renderEnum(s *avro.EnumSchema) string {
	typeName := sanitizeExported(s.Name())
	var b strings.Builder
	if doc := s.Doc(); doc != "" {
		fmt.Fprintf(&b, "// %s %s\n", typeName, doc)
	}
	fmt.Fprintf(&b, "type %s string\n\n", typeName)

	b.WriteString("const (\n")
	for _, sym := range s.Symbols() {
		fmt.Fprintf(&b, "\t%s%s %s = %q\n", typeName, sanitizeExported(sym), typeName, sym)
	}
	b.WriteString(")\n\n")

	fmt.Fprintf(&b, "func (v %s) String() string { return string(v) }\n\n", typeName)
	fmt.Fprintf(&b, "func (%s) AvroSymbols() []string {\n\treturn []string{", typeName)
	for i, sym := range s.Symbols() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", sym)
	}
	b.WriteString("}\n}\n")
	return b.String()
}

// goType maps one schema node to the host type it derives to per §4.3,
// tracking which imports that mapping requires.
func (g *generator) goType(s avro.Schema) (string, error) {
	s = avro.Deref(s)
	switch t := s.(type) {
	case *avro.PrimitiveSchema:
		return g.primitiveGoType(t)
	case *avro.RecordSchema:
		return sanitizeExported(t.Name()), nil
	case *avro.EnumSchema:
		return sanitizeExported(t.Name()), nil
	case *avro.FixedSchema:
		if t.Logical() != nil {
			switch t.Logical().Type() {
			case avro.Decimal:
				g.needsDecimal = true
				return "decimal.Decimal", nil
			case avro.DurationLogical:
				g.needsAvro = true
				return "avro.Duration", nil
			}
		}
		return sanitizeExported(t.Name()), nil
	case *avro.ArraySchema:
		elem, err := g.goType(t.Items())
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case *avro.MapSchema:
		val, err := g.goType(t.Values())
		if err != nil {
			return "", err
		}
		return "map[string]" + val, nil
	case *avro.UnionSchema:
		return g.unionGoType(t)
	default:
		return "", avro.NewError(avro.ErrUnknownType, "cannot map schema type %s to a host type", s.Type())
	}
}

func (g *generator) primitiveGoType(s *avro.PrimitiveSchema) (string, error) {
	if logical := s.Logical(); logical != nil {
		switch logical.Type() {
		case avro.UUID:
			g.needsUUID = true
			return "uuid.UUID", nil
		case avro.Decimal:
			g.needsDecimal = true
			return "decimal.Decimal", nil
		case avro.TimeMillis, avro.TimeMicros:
			// decoded as a clock-of-day offset (avro.logicalDecodeInt), not a
			// calendar instant, so the host type is time.Duration, not time.Time.
			g.needsTime = true
			return "time.Duration", nil
		case avro.Date, avro.TimestampMillis, avro.TimestampMicros,
			avro.LocalTimestampMillis, avro.LocalTimestampMicros:
			g.needsTime = true
			return "time.Time", nil
		}
	}
	switch s.Type() {
	case avro.Null:
		return "interface{}", nil
	case avro.Boolean:
		return "bool", nil
	case avro.Int:
		return "int32", nil
	case avro.Long:
		return "int64", nil
	case avro.Float:
		return "float32", nil
	case avro.Double:
		return "float64", nil
	case avro.Bytes:
		return "[]byte", nil
	case avro.String:
		return "string", nil
	default:
		return "", avro.NewError(avro.ErrUnknownType, "unexpected primitive %s", s.Type())
	}
}

// unionGoType maps the common union[null, T] shape to *T (an optional
// field), and any wider union to avro.Union, the caller-disambiguated
// dynamic wrapper the codec itself uses for branch selection.
func (g *generator) unionGoType(s *avro.UnionSchema) (string, error) {
	types := s.Types()
	if len(types) == 2 && avro.Deref(types[0]).Type() == avro.Null {
		inner, err := g.goType(types[1])
		if err != nil {
			return "", err
		}
		return "*" + inner, nil
	}
	g.needsAvro = true
	return "avro.Union", nil
}
