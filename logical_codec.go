package avro

import (
	"encoding/binary"
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// logicalEncodeInt encodes a host value as the int/long base representation
// for the date/time/timestamp logical types (§4.4 "logical" encodings).
func logicalEncodeInt(rv reflect.Value, lt *LogicalSchema) (int64, error) {
	switch lt.Type() {
	case Date:
		t, err := asTime(rv)
		if err != nil {
			return 0, err
		}
		days := t.UTC().Truncate(24 * time.Hour).Unix() / int64((24 * time.Hour).Seconds())
		return days, nil
	case TimeMillis:
		d, err := asClockDuration(rv)
		if err != nil {
			return 0, err
		}
		return d.Milliseconds(), nil
	case TimeMicros:
		d, err := asClockDuration(rv)
		if err != nil {
			return 0, err
		}
		return d.Microseconds(), nil
	case TimestampMillis:
		t, err := asTime(rv)
		if err != nil {
			return 0, err
		}
		return t.UnixMilli(), nil
	case TimestampMicros:
		t, err := asTime(rv)
		if err != nil {
			return 0, err
		}
		return t.UnixMicro(), nil
	case LocalTimestampMillis:
		t, err := asTime(rv)
		if err != nil {
			return 0, err
		}
		return t.UnixMilli(), nil
	case LocalTimestampMicros:
		t, err := asTime(rv)
		if err != nil {
			return 0, err
		}
		return t.UnixMicro(), nil
	default:
		return 0, newErr(ErrSchemaMismatch, "logical type %s is not int/long-backed", lt.Type())
	}
}

func asTime(rv reflect.Value) (time.Time, error) {
	if rv.Type() == timeType {
		return rv.Interface().(time.Time), nil
	}
	return time.Time{}, newErr(ErrSchemaMismatch, "expected time.Time, got %s", rv.Type())
}

func asClockDuration(rv reflect.Value) (time.Duration, error) {
	if rv.Type() == timeType {
		t := rv.Interface().(time.Time)
		midnight := t.Truncate(24 * time.Hour)
		return t.Sub(midnight), nil
	}
	if d, ok := rv.Interface().(time.Duration); ok {
		return d, nil
	}
	return 0, newErr(ErrSchemaMismatch, "expected time.Time or time.Duration, got %s", rv.Type())
}

// logicalDecodeInt is logicalEncodeInt's inverse, producing a generic host value.
func logicalDecodeInt(wire int64, lt *LogicalSchema) interface{} {
	switch lt.Type() {
	case Date:
		return time.Unix(wire*int64((24*time.Hour).Seconds()), 0).UTC()
	case TimeMillis:
		return time.Duration(wire) * time.Millisecond
	case TimeMicros:
		return time.Duration(wire) * time.Microsecond
	case TimestampMillis:
		return time.UnixMilli(wire).UTC()
	case TimestampMicros:
		return time.UnixMicro(wire).UTC()
	case LocalTimestampMillis:
		return time.UnixMilli(wire)
	case LocalTimestampMicros:
		return time.UnixMicro(wire)
	default:
		return wire
	}
}

// logicalEncodeDecimalBytes encodes a decimal.Decimal as the unscaled
// two's-complement coefficient, padded to fixedSize bytes when the base is
// fixed(N) (fixedSize == 0 means the base is bytes, no padding).
func logicalEncodeDecimalBytes(rv reflect.Value, lt *LogicalSchema, fixedSize int) ([]byte, error) {
	var d decimal.Decimal
	switch v := rv.Interface().(type) {
	case decimal.Decimal:
		d = v
	default:
		return nil, newErr(ErrSchemaMismatch, "expected decimal.Decimal, got %s", rv.Type())
	}
	coeff := decimalToBigInt(d, lt.Scale())
	if !digitsFit(coeff, lt.Precision()) {
		return nil, newErr(ErrDecimalOutOfPrecision, "value exceeds declared precision %d", lt.Precision())
	}
	raw := twosComplementBytes(coeff)
	if fixedSize == 0 {
		return raw, nil
	}
	return padTwosComplement(raw, fixedSize)
}

func digitsFit(coeff *big.Int, precision int) bool {
	s := coeff.String()
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	return len(s) <= precision
}

// logicalDecodeDecimal inverts logicalEncodeDecimalBytes.
func logicalDecodeDecimal(raw []byte, lt *LogicalSchema) decimal.Decimal {
	coeff := twosComplementToBigInt(raw)
	return bigIntToDecimal(coeff, lt.Scale())
}

// logicalEncodeUUID renders a uuid.UUID as its canonical 36-char string form.
func logicalEncodeUUID(rv reflect.Value) (string, error) {
	id, ok := rv.Interface().(uuid.UUID)
	if !ok {
		return "", newErr(ErrSchemaMismatch, "expected uuid.UUID, got %s", rv.Type())
	}
	return id.String(), nil
}

func logicalDecodeUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, wrapErr(ErrSchemaMismatch, err, "invalid uuid %q", s)
	}
	return id, nil
}

// durationByteLen is the wire size of the duration logical type: three
// little-endian uint32 components.
const durationByteLen = 12

// logicalEncodeDuration renders a Duration as three little-endian uint32s.
func logicalEncodeDuration(rv reflect.Value) ([]byte, error) {
	d, ok := rv.Interface().(Duration)
	if !ok {
		return nil, newErr(ErrSchemaMismatch, "expected avro.Duration, got %s", rv.Type())
	}
	buf := make([]byte, durationByteLen)
	binary.LittleEndian.PutUint32(buf[0:4], d.Months)
	binary.LittleEndian.PutUint32(buf[4:8], d.Days)
	binary.LittleEndian.PutUint32(buf[8:12], d.Milliseconds)
	return buf, nil
}

func logicalDecodeDuration(raw []byte) Duration {
	return Duration{
		Months:       binary.LittleEndian.Uint32(raw[0:4]),
		Days:         binary.LittleEndian.Uint32(raw[4:8]),
		Milliseconds: binary.LittleEndian.Uint32(raw[8:12]),
	}
}
