package avro

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintGoldens(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x02}},
		{63, []byte{0x7e}},
		{64, []byte{0x80, 0x01}},
		{-1, []byte{0x01}},
		{-65, []byte{0x81, 0x01}},
	}
	for _, c := range cases {
		buf := make([]byte, 10)
		n := putVarint(buf, c.v)
		require.Equal(t, c.want, buf[:n], "encoding %d", c.v)
		require.Equal(t, len(c.want), varintSize(c.v), "size of %d", c.v)

		got, consumed, err := getVarint(buf[:n])
		require.NoError(t, err)
		require.Equal(t, c.v, got)
		require.Equal(t, n, consumed)
	}
}

func TestVarintTruncated(t *testing.T) {
	_, _, err := getVarint([]byte{0x80})
	require.Error(t, err)
	var avroErr *Error
	require.ErrorAs(t, err, &avroErr)
	require.Equal(t, ErrTruncated, avroErr.Kind)
}

func TestVarintOverflow(t *testing.T) {
	buf := make([]byte, 10)
	for i := range buf {
		buf[i] = 0x80
	}
	_, _, err := getVarint(buf)
	var avroErr *Error
	require.ErrorAs(t, err, &avroErr)
	require.Equal(t, ErrOverflow, avroErr.Kind)
}
