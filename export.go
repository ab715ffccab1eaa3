package avro

// NewError builds an *Error of the given kind for use by sibling packages
// (ocf, avrogen) that need to raise the same error-kind vocabulary as the
// codec without duplicating it.
func NewError(kind ErrorKind, format string, args ...interface{}) error {
	return newErr(kind, format, args...)
}

// WrapError is NewError plus a wrapped cause, reachable via errors.Unwrap.
func WrapError(kind ErrorKind, cause error, format string, args ...interface{}) error {
	return wrapErr(kind, cause, format, args...)
}

// PutVarint encodes v as VarZigZag into buf, returning the byte count written.
func PutVarint(buf []byte, v int64) int { return putVarint(buf, v) }

// VarintSize reports the VarZigZag-encoded length of v without writing it.
func VarintSize(v int64) int { return varintSize(v) }

// GetVarint decodes a VarZigZag long from the start of buf, returning the
// value and the number of bytes consumed.
func GetVarint(buf []byte) (int64, int, error) { return getVarint(buf) }
