package avro

// Type identifies which of the schema variants a Schema value is. It mirrors
// the type names used in the Avro JSON schema grammar so parsing and
// stringification share one vocabulary.
type Type string

// Primitive and compound schema type constants.
const (
	Null    Type = "null"
	Boolean Type = "boolean"
	Int     Type = "int"
	Long    Type = "long"
	Float   Type = "float"
	Double  Type = "double"
	Bytes   Type = "bytes"
	String  Type = "string"

	Record Type = "record"
	Enum   Type = "enum"
	Array  Type = "array"
	Map    Type = "map"
	Union  Type = "union"
	Fixed  Type = "fixed"

	// Ref is the Type reported by a schema node that is a named reference to
	// a Record, Enum, or Fixed defined elsewhere in the same schema tree.
	Ref Type = "ref"
)

func (t Type) isPrimitive() bool {
	switch t {
	case Null, Boolean, Int, Long, Float, Double, Bytes, String:
		return true
	default:
		return false
	}
}

// LogicalType names a domain-level reinterpretation of a primitive or fixed
// base type, per the Avro logical type registry.
type LogicalType string

// Recognized logical types.
const (
	Decimal               LogicalType = "decimal"
	UUID                  LogicalType = "uuid"
	Date                  LogicalType = "date"
	TimeMillis            LogicalType = "time-millis"
	TimeMicros            LogicalType = "time-micros"
	TimestampMillis       LogicalType = "timestamp-millis"
	TimestampMicros       LogicalType = "timestamp-micros"
	LocalTimestampMillis  LogicalType = "local-timestamp-millis"
	LocalTimestampMicros  LogicalType = "local-timestamp-micros"
	DurationLogical       LogicalType = "duration"
)
