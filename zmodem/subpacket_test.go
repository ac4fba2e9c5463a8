package zmodem

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubpacketRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x00},
		{0, 1, 2, 3, 4, 0x60, 0x60},
		bytes.Repeat([]byte{0x18, 0x11, 0x13, 0x0d, 0xff, 0x7f}, 100),
	}

	for _, encoding := range []Encoding{ZBIN, ZBIN32} {
		for _, term := range []Terminator{ZCRCE, ZCRCG, ZCRCQ, ZCRCW} {
			for _, payload := range payloads {
				var buf bytes.Buffer
				require.NoError(t, writeSubpacket(&buf, encoding, term, payload))

				scratch := make([]byte, 0, bufferSize)
				got, gotTerm, err := readSubpacket(&buf, scratch, encoding)
				require.NoError(t, err)
				require.Equal(t, term, gotTerm)
				require.Equal(t, payload, append([]byte{}, got...))
				require.Zero(t, buf.Len(), "trailing bytes left on the wire")
			}
		}
	}
}

func TestSubpacketRejectsCorruptCRC(t *testing.T) {
	payload := []byte("some file data")

	for _, encoding := range []Encoding{ZBIN, ZBIN32} {
		var buf bytes.Buffer
		require.NoError(t, writeSubpacket(&buf, encoding, ZCRCW, payload))

		wire := buf.Bytes()
		wire[len(wire)-1] ^= 0x01

		scratch := make([]byte, 0, bufferSize)
		_, _, err := readSubpacket(bytes.NewBuffer(wire), scratch, encoding)
		require.Error(t, err)
		require.True(t, IsData(err))
	}
}

func TestSubpacketRejectsCorruptPayload(t *testing.T) {
	payload := bytes.Repeat([]byte{0x55}, 64)

	var buf bytes.Buffer
	require.NoError(t, writeSubpacket(&buf, ZBIN32, ZCRCG, payload))

	wire := buf.Bytes()
	wire[10] ^= 0x04

	scratch := make([]byte, 0, bufferSize)
	_, _, err := readSubpacket(bytes.NewBuffer(wire), scratch, ZBIN32)
	require.Error(t, err)
	require.True(t, IsData(err))
}

func TestSubpacketOverflowRecovery(t *testing.T) {
	// A payload that fills the scratch buffer before its terminator
	// arrives is discarded whole: empty payload, terminator reported,
	// CRC consumed, stream left aligned.
	oversized := bytes.Repeat([]byte{0x42}, bufferSize+200)

	var buf bytes.Buffer
	require.NoError(t, writeSubpacket(&buf, ZBIN32, ZCRCW, oversized))

	scratch := make([]byte, 0, bufferSize)
	payload, term, err := readSubpacket(&buf, scratch, ZBIN32)
	require.NoError(t, err)
	require.Equal(t, ZCRCW, term)
	require.Empty(t, payload)
	require.Zero(t, buf.Len(), "recovery must consume the whole subpacket")
}

func TestSubpacketMaxPayload(t *testing.T) {
	// 1023 payload bytes plus the staged terminator exactly fill the
	// buffer without tripping overflow recovery.
	payload := bytes.Repeat([]byte{0x37}, bufferSize-1)

	var buf bytes.Buffer
	require.NoError(t, writeSubpacket(&buf, ZBIN, ZCRCE, payload))

	scratch := make([]byte, 0, bufferSize)
	got, term, err := readSubpacket(&buf, scratch, ZBIN)
	require.NoError(t, err)
	require.Equal(t, ZCRCE, term)
	require.Len(t, got, bufferSize-1)
}

func TestSubpacketHexPanics(t *testing.T) {
	var buf bytes.Buffer
	require.Panics(t, func() {
		_ = writeSubpacket(&buf, ZHEX, ZCRCW, []byte("nope"))
	})
}

func TestSubpacketTerminatorNotEscaped(t *testing.T) {
	// The terminator byte follows ZDLE raw; it is not run through
	// escape translation even though 0x68..0x6b would pass through
	// unchanged anyway. Pin the wire form.
	var buf bytes.Buffer
	require.NoError(t, writeSubpacket(&buf, ZBIN, ZCRCG, nil))

	wire := buf.Bytes()
	require.Equal(t, byte(ZDLE), wire[0])
	require.Equal(t, byte(ZCRCG), wire[1])
}
