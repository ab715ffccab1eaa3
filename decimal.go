package avro

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// decimalToBigInt returns the unscaled coefficient of d rescaled to exactly
// -scale, i.e. the integer the wire format encodes.
func decimalToBigInt(d decimal.Decimal, scale int) *big.Int {
	rescaled := d.Rescale(-int32(scale))
	return rescaled.Coefficient()
}

// bigIntToDecimal is decimalToBigInt's inverse.
func bigIntToDecimal(coeff *big.Int, scale int) decimal.Decimal {
	return decimal.NewFromBigInt(coeff, -int32(scale))
}

// twosComplementBytes renders n as the shortest two's-complement big-endian
// byte sequence that round-trips through twosComplementToBigInt, matching
// the convention used by Java's BigInteger.toByteArray (the de facto Avro
// reference behavior for decimal payloads).
func twosComplementBytes(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0}
	}
	if n.Sign() > 0 {
		b := n.Bytes()
		if b[0]&0x80 != 0 {
			return append([]byte{0}, b...)
		}
		return b
	}
	inverted := new(big.Int).Neg(n)
	inverted.Sub(inverted, big.NewInt(1))
	nBytes := inverted.BitLen()/8 + 1
	mod := new(big.Int).Lsh(big.NewInt(1), uint(nBytes*8))
	twos := new(big.Int).Add(mod, n)
	b := twos.Bytes()
	for len(b) < nBytes {
		b = append([]byte{0}, b...)
	}
	return b
}

// padTwosComplement left-pads (sign-extends) b to exactly n bytes, for
// decimal values backed by a fixed(N) schema rather than bytes. Returns an
// error if b is already longer than n (the value does not fit the fixed
// size, i.e. exceeds the schema's declared precision).
func padTwosComplement(b []byte, n int) ([]byte, error) {
	if len(b) > n {
		return nil, newErr(ErrDecimalOutOfPrecision, "decimal needs %d bytes, fixed size is %d", len(b), n)
	}
	if len(b) == n {
		return b, nil
	}
	sign := byte(0x00)
	if b[0]&0x80 != 0 {
		sign = 0xFF
	}
	out := make([]byte, n)
	for i := 0; i < n-len(b); i++ {
		out[i] = sign
	}
	copy(out[n-len(b):], b)
	return out, nil
}

// twosComplementToBigInt inverts twosComplementBytes / padTwosComplement.
func twosComplementToBigInt(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return n
}
