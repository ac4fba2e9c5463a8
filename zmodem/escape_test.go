package zmodem

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeTablesArePaired(t *testing.T) {
	// Every escaped form must decode back to the original.
	for i := 0; i < 256; i++ {
		b := byte(i)
		escaped := zdleTable[b]
		if escaped != b {
			require.Equal(t, b, unzdleTable[escaped],
				"escape of 0x%02x is 0x%02x but reverse table disagrees", b, escaped)
		}
	}
}

func TestEscapeReservedSet(t *testing.T) {
	// ZDLE, DLE, XON, XOFF, CR and their high-bit siblings go out
	// behind a ZDLE marker. 0x98 (ZDLE with the high bit) is the odd
	// one out: the table transmits it raw while the reader still
	// accepts its escaped form.
	reserved := []byte{0x18, 0x10, 0x11, 0x13, 0x0d, 0x90, 0x91, 0x93, 0x8d}
	for _, b := range reserved {
		require.NotEqual(t, b, zdleTable[b], "0x%02x must be escaped", b)
		require.Equal(t, b^0x40, zdleTable[b], "0x%02x escapes by XOR 0x40", b)
	}

	require.Equal(t, byte(0x98), zdleTable[0x98])
	require.Equal(t, byte(0x98), unzdleTable[0xd8])
}

func TestEscapeLaxHighBytes(t *testing.T) {
	// The writer transmits 0x7f and 0xff raw, but the reader still
	// accepts their rubout escape sequences from stricter peers.
	require.Equal(t, byte(0x7f), zdleTable[0x7f])
	require.Equal(t, byte(0xff), zdleTable[0xff])
	require.Equal(t, byte(0x7f), unzdleTable[0x6c])
	require.Equal(t, byte(0xff), unzdleTable[0x6d])
}

func TestEscapeRoundTrip(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		var buf bytes.Buffer
		require.NoError(t, writeByteEscaped(&buf, b))

		got, err := readByteUnescaped(&buf)
		require.NoError(t, err)
		require.Equal(t, b, got, "round-trip failed for 0x%02x", b)
		require.Zero(t, buf.Len(), "trailing bytes after 0x%02x", b)
	}
}

func TestEscapeWireForm(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeByteEscaped(&buf, 0x18))
	require.Equal(t, []byte{ZDLE, 0x58}, buf.Bytes())

	buf.Reset()
	require.NoError(t, writeByteEscaped(&buf, 'A'))
	require.Equal(t, []byte{'A'}, buf.Bytes())
}

func TestReadByteUnescapedPlain(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x41})
	got, err := readByteUnescaped(buf)
	require.NoError(t, err)
	require.Equal(t, byte(0x41), got)
}

func TestReadByteUnescapedEmpty(t *testing.T) {
	var buf bytes.Buffer
	_, err := readByteUnescaped(&buf)
	require.Error(t, err)
	require.True(t, IsRead(err))
}
