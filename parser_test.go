package avro

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePrimitive(t *testing.T) {
	s, err := Parse(`"long"`)
	require.NoError(t, err)
	require.Equal(t, Long, s.Type())
}

func TestParseRecordWithSelfReference(t *testing.T) {
	s, err := Parse(`
	{
	  "type": "record",
	  "name": "TreeNode",
	  "fields": [
	    {"name": "value", "type": "int"},
	    {"name": "left", "type": ["null", "TreeNode"], "default": null},
	    {"name": "right", "type": ["null", "TreeNode"], "default": null}
	  ]
	}`)
	require.NoError(t, err)
	rec, ok := s.(*RecordSchema)
	require.True(t, ok)
	require.Equal(t, "TreeNode", rec.FullName())

	left := rec.FieldByName("left")
	require.NotNil(t, left)
	union, ok := Deref(left.Type()).(*UnionSchema)
	require.True(t, ok)
	ref, ok := union.Types()[1].(*RefSchema)
	require.True(t, ok)
	require.Same(t, Schema(rec), Deref(ref))
}

func TestParseDottedNameOverridesEnclosingNamespace(t *testing.T) {
	s, err := Parse(`{
	  "type": "record",
	  "name": "com.example.Widget",
	  "namespace": "ignored.namespace",
	  "fields": [{"name": "id", "type": "long"}]
	}`)
	require.NoError(t, err)
	rec, ok := s.(*RecordSchema)
	require.True(t, ok)
	require.Equal(t, "Widget", rec.Name())
	require.Equal(t, "com.example", rec.Namespace())
	require.Equal(t, "com.example.Widget", rec.FullName())
}

func TestParseEnumAndFixed(t *testing.T) {
	s, err := Parse(`{"type":"enum","name":"Suit","symbols":["SPADES","HEARTS"]}`)
	require.NoError(t, err)
	enum, ok := s.(*EnumSchema)
	require.True(t, ok)
	require.Equal(t, []string{"SPADES", "HEARTS"}, enum.Symbols())

	f, err := Parse(`{"type":"fixed","name":"MD5","size":16}`)
	require.NoError(t, err)
	fixed, ok := f.(*FixedSchema)
	require.True(t, ok)
	require.Equal(t, 16, fixed.Size())
}

func TestParseDecimalLogicalType(t *testing.T) {
	s, err := Parse(`{"type":"bytes","logicalType":"decimal","precision":9,"scale":2}`)
	require.NoError(t, err)
	prim, ok := s.(*PrimitiveSchema)
	require.True(t, ok)
	require.NotNil(t, prim.Logical())
	require.Equal(t, Decimal, prim.Logical().Type())
	require.Equal(t, 9, prim.Logical().Precision())
	require.Equal(t, 2, prim.Logical().Scale())
}

func TestParseDurationRequiresFixedSize12(t *testing.T) {
	s, err := Parse(`{"type":"fixed","name":"Dur","size":12,"logicalType":"duration"}`)
	require.NoError(t, err)
	fixed := s.(*FixedSchema)
	require.NotNil(t, fixed.Logical())
	require.Equal(t, DurationLogical, fixed.Logical().Type())

	_, err = Parse(`{"type":"fixed","name":"NotDur","size":8,"logicalType":"duration"}`)
	require.Error(t, err, "duration logical type on a fixed size other than 12 must be rejected")
}

func TestParseUnknownNameErrors(t *testing.T) {
	_, err := Parse(`{"type":"record","name":"R","fields":[{"name":"f","type":"Nope"}]}`)
	require.Error(t, err)
	var avroErr *Error
	require.ErrorAs(t, err, &avroErr)
	require.Equal(t, ErrUnknownType, avroErr.Kind)
}

func TestParseArrayAndMap(t *testing.T) {
	s, err := Parse(`{"type":"array","items":"string"}`)
	require.NoError(t, err)
	arr, ok := s.(*ArraySchema)
	require.True(t, ok)
	require.Equal(t, String, arr.Items().Type())

	m, err := Parse(`{"type":"map","values":"long"}`)
	require.NoError(t, err)
	mp, ok := m.(*MapSchema)
	require.True(t, ok)
	require.Equal(t, Long, mp.Values().Type())
}
