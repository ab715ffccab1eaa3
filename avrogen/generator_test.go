package avrogen

import (
	"strings"
	"testing"

	"github.com/avrolib/avro"
	"github.com/stretchr/testify/require"
)

// field asserts that src contains a struct-field-shaped line for name and
// goType, tolerating the extra column-alignment whitespace gofmt inserts
// across a contiguous block of struct fields.
func field(t *testing.T, src, name, goType string) {
	t.Helper()
	require.Regexp(t, name+`\s+`+regexpQuote(goType), src)
}

func regexpQuote(s string) string {
	r := strings.NewReplacer(
		"[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
		".", `\.`, "*", `\*`, "+", `\+`, "{", `\{`, "}", `\}`,
	)
	return r.Replace(s)
}

func TestEmitSimpleRecord(t *testing.T) {
	fields := []*avro.Field{
		avro.NewField("id", avro.NewPrimitiveSchema(avro.Long, nil), false, nil, 0),
		avro.NewField("name", avro.NewPrimitiveSchema(avro.String, nil), false, nil, 1),
		avro.NewField("active", avro.NewPrimitiveSchema(avro.Boolean, nil), false, nil, 2),
	}
	rec, err := avro.NewRecordSchema("Widget", "", fields)
	require.NoError(t, err)

	src, err := Emit(rec, Options{})
	require.NoError(t, err)
	require.Contains(t, src, "package avrogen")
	require.Contains(t, src, "type Widget struct")
	field(t, src, "Id", "int64")
	require.Contains(t, src, `avro:"id"`)
	field(t, src, "Name", "string")
	require.Contains(t, src, `avro:"name"`)
	field(t, src, "Active", "bool")
}

func TestEmitCustomPackageName(t *testing.T) {
	rec, err := avro.NewRecordSchema("Empty", "", nil)
	require.NoError(t, err)
	src, err := Emit(rec, Options{PackageName: "models"})
	require.NoError(t, err)
	require.Contains(t, src, "package models")
}

func TestEmitNestedRecordDependencyOrder(t *testing.T) {
	addrFields := []*avro.Field{
		avro.NewField("city", avro.NewPrimitiveSchema(avro.String, nil), false, nil, 0),
	}
	addr, err := avro.NewRecordSchema("Address", "", addrFields)
	require.NoError(t, err)

	personFields := []*avro.Field{
		avro.NewField("name", avro.NewPrimitiveSchema(avro.String, nil), false, nil, 0),
		avro.NewField("location", addr, false, nil, 1),
	}
	person, err := avro.NewRecordSchema("Person", "", personFields)
	require.NoError(t, err)

	src, err := Emit(person, Options{})
	require.NoError(t, err)
	require.Contains(t, src, "type Address struct")
	require.Contains(t, src, "type Person struct")
	field(t, src, "Location", "Address")
	require.Less(t, strings.Index(src, "type Address struct"), strings.Index(src, "type Person struct"),
		"a referenced record must be emitted before the record that embeds it")
}

func TestEmitSelfReferentialRecordUsesPointer(t *testing.T) {
	s, err := avro.Parse(`{
	  "type": "record",
	  "name": "TreeNode",
	  "fields": [
	    {"name": "value", "type": "int"},
	    {"name": "left", "type": ["null", "TreeNode"], "default": null},
	    {"name": "right", "type": ["null", "TreeNode"], "default": null}
	  ]
	}`)
	require.NoError(t, err)

	src, err := Emit(s, Options{})
	require.NoError(t, err)
	require.Contains(t, src, "type TreeNode struct")
	field(t, src, "Left", "*TreeNode")
	field(t, src, "Right", "*TreeNode")
	require.Equal(t, 1, strings.Count(src, "type TreeNode struct"),
		"a self-referential record must be emitted exactly once")
}

func TestEmitEnumGeneratesSymbolsAndConstants(t *testing.T) {
	enum, err := avro.NewEnumSchema("Suit", "", []string{"SPADES", "HEARTS", "CLUBS"})
	require.NoError(t, err)

	src, err := Emit(enum, Options{})
	require.NoError(t, err)
	require.Contains(t, src, "type Suit string")
	require.Regexp(t, `SuitSPADES\s+Suit\s+=\s+"SPADES"`, src)
	require.Contains(t, src, "func (v Suit) String() string")
	require.Contains(t, src, "func (Suit) AvroSymbols() []string")
	require.Contains(t, src, `"SPADES", "HEARTS", "CLUBS"`)
}

func TestEmitFixedPlainType(t *testing.T) {
	fixed, err := avro.NewFixedSchema("MD5", "", 16, nil)
	require.NoError(t, err)

	src, err := Emit(fixed, Options{})
	require.NoError(t, err)
	require.Contains(t, src, "type MD5 [16]byte")
}

func TestEmitDecimalFixedMapsToDecimalType(t *testing.T) {
	decSchema, err := avro.NewFixedSchema("Amount", "", 8, avro.NewDecimalLogicalSchema(18, 2))
	require.NoError(t, err)
	fields := []*avro.Field{
		avro.NewField("amount", decSchema, false, nil, 0),
	}
	rec, err := avro.NewRecordSchema("Invoice", "", fields)
	require.NoError(t, err)

	src, err := Emit(rec, Options{})
	require.NoError(t, err)
	field(t, src, "Amount", "decimal.Decimal")
	require.Contains(t, src, `"github.com/shopspring/decimal"`)
	require.NotContains(t, src, "type Amount [8]byte",
		"a logical-typed fixed base must not also emit a redundant named byte-array type")
}

func TestEmitOptionalUnionBecomesPointer(t *testing.T) {
	nullAndString, err := avro.NewUnionSchema([]avro.Schema{
		avro.NewPrimitiveSchema(avro.Null, nil),
		avro.NewPrimitiveSchema(avro.String, nil),
	})
	require.NoError(t, err)
	fields := []*avro.Field{
		avro.NewField("label", nullAndString, true, nil, 0),
	}
	rec, err := avro.NewRecordSchema("Reading", "", fields)
	require.NoError(t, err)

	src, err := Emit(rec, Options{})
	require.NoError(t, err)
	field(t, src, "Label", "*string")
}

func TestEmitWideUnionBecomesAvroUnion(t *testing.T) {
	wide, err := avro.NewUnionSchema([]avro.Schema{
		avro.NewPrimitiveSchema(avro.String, nil),
		avro.NewPrimitiveSchema(avro.Long, nil),
		avro.NewPrimitiveSchema(avro.Boolean, nil),
	})
	require.NoError(t, err)
	fields := []*avro.Field{
		avro.NewField("payload", wide, false, nil, 0),
	}
	rec, err := avro.NewRecordSchema("Event", "", fields)
	require.NoError(t, err)

	src, err := Emit(rec, Options{})
	require.NoError(t, err)
	field(t, src, "Payload", "avro.Union")
	require.Contains(t, src, `"github.com/avrolib/avro"`)
}

func TestEmitUUIDAndTimestampLogicalTypes(t *testing.T) {
	fields := []*avro.Field{
		avro.NewField("id", avro.NewPrimitiveSchema(avro.String, avro.NewLogicalSchema(avro.UUID)), false, nil, 0),
		avro.NewField("created", avro.NewPrimitiveSchema(avro.Long, avro.NewLogicalSchema(avro.TimestampMillis)), false, nil, 1),
	}
	rec, err := avro.NewRecordSchema("Session", "", fields)
	require.NoError(t, err)

	src, err := Emit(rec, Options{})
	require.NoError(t, err)
	field(t, src, "Id", "uuid.UUID")
	require.Contains(t, src, `"github.com/google/uuid"`)
	field(t, src, "Created", "time.Time")
	require.Contains(t, src, `"time"`)
}

func TestEmitTimeMillisAndMicrosMapToDuration(t *testing.T) {
	fields := []*avro.Field{
		avro.NewField("millis", avro.NewPrimitiveSchema(avro.Int, avro.NewLogicalSchema(avro.TimeMillis)), false, nil, 0),
		avro.NewField("micros", avro.NewPrimitiveSchema(avro.Long, avro.NewLogicalSchema(avro.TimeMicros)), false, nil, 1),
	}
	rec, err := avro.NewRecordSchema("Span", "", fields)
	require.NoError(t, err)

	src, err := Emit(rec, Options{})
	require.NoError(t, err)
	field(t, src, "Millis", "time.Duration")
	field(t, src, "Micros", "time.Duration")
	require.Contains(t, src, `"time"`)
	require.NotContains(t, src, "time.Time")
}

func TestSanitizeIdentHandlesInvalidCharsAndKeywords(t *testing.T) {
	require.Equal(t, "foo_bar", sanitizeIdent("foo-bar"))
	require.Equal(t, "_123abc", sanitizeIdent("123abc"))
	require.Equal(t, "type_", sanitizeIdent("type"))
	require.Equal(t, "Type_", sanitizeExported("type"))
	require.Equal(t, "Foo_Bar", sanitizeExported("foo.Bar"))
}

func TestEmitArrayAndMapFieldTypes(t *testing.T) {
	fields := []*avro.Field{
		avro.NewField("tags", avro.NewArraySchema(avro.NewPrimitiveSchema(avro.String, nil)), false, nil, 0),
		avro.NewField("counts", avro.NewMapSchema(avro.NewPrimitiveSchema(avro.Int, nil)), false, nil, 1),
	}
	rec, err := avro.NewRecordSchema("Stats", "", fields)
	require.NoError(t, err)

	src, err := Emit(rec, Options{})
	require.NoError(t, err)
	field(t, src, "Tags", "[]string")
	field(t, src, "Counts", "map[string]int32")
}
