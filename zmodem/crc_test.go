package zmodem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC16KnownVector(t *testing.T) {
	// CRC-16/XMODEM of "123456789" is 0x31C3, emitted big-endian.
	got := makeCRC([]byte("123456789"), ZBIN)
	require.Equal(t, []byte{0x31, 0xC3}, got)
}

func TestCRC16HexUsesSameFamily(t *testing.T) {
	data := []byte{0x00, 0x01, 0x01, 0x01, 0x01}
	require.Equal(t, makeCRC(data, ZBIN), makeCRC(data, ZHEX))
}

func TestCRC32KnownVector(t *testing.T) {
	// CRC-32/ISO-HDLC of "123456789" is 0xCBF43926, emitted
	// little-endian.
	got := makeCRC([]byte("123456789"), ZBIN32)
	require.Equal(t, []byte{0x26, 0x39, 0xF4, 0xCB}, got)
}

func TestCRCZeroHeader(t *testing.T) {
	// A ZRQINIT body of five zero bytes has a zero CRC-16; this pins
	// the zero-init, no-xorout parameters.
	got := makeCRC([]byte{0, 0, 0, 0, 0}, ZBIN)
	require.Equal(t, []byte{0x00, 0x00}, got)
}

func TestCheckCRC(t *testing.T) {
	data := []byte("Hello, ZMODEM!")

	for _, encoding := range []Encoding{ZBIN, ZBIN32} {
		crc := makeCRC(data, encoding)
		require.NoError(t, checkCRC(data, crc, encoding))

		corrupted := append([]byte(nil), crc...)
		corrupted[0] ^= 0x01
		err := checkCRC(data, corrupted, encoding)
		require.Error(t, err)
		require.True(t, IsData(err))
	}
}

func TestCheckCRCLength(t *testing.T) {
	err := checkCRC([]byte("abc"), []byte{0x00}, ZBIN)
	require.Error(t, err)
	require.True(t, IsData(err))
}

func TestSubpacketCRCMatchesContiguous(t *testing.T) {
	// The incremental subpacket CRC must agree with a one-shot CRC
	// over payload plus terminator.
	payload := []byte{0, 1, 2, 3, 4, 0x60, 0x60}
	joined := append(append([]byte(nil), payload...), byte(ZCRCQ))

	for _, encoding := range []Encoding{ZBIN, ZBIN32} {
		require.Equal(t, makeCRC(joined, encoding), subpacketCRC(payload, ZCRCQ, encoding))
	}
}
