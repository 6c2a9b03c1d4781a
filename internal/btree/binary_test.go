package btree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint16RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	PutUint16(buf, 1, 0xBEEF)
	require.Equal(t, uint16(0xBEEF), GetUint16(buf, 1))
}

func TestUint32RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	PutUint32(buf, 2, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), GetUint32(buf, 2))
}

func TestVarint32RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0x7F, 0x80, 0x3FFF, 0x4000, 0x1FFFFF, 0x200000, maxVarint32}
	for _, v := range cases {
		buf := make([]byte, 4)
		n, err := PutVarint32(buf, v)
		require.NoError(t, err)
		got, consumed := GetVarint32(buf[:n])
		require.Equal(t, v, got)
		require.Equal(t, n, consumed)
	}
}

func TestVarint32Overflow(t *testing.T) {
	buf := make([]byte, 4)
	_, err := PutVarint32(buf, maxVarint32+1)
	require.Error(t, err)
}
