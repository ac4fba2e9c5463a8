package zmodem

import (
	"encoding/binary"

	"github.com/snksoft/crc"
)

// Frame integrity uses two CRC families: CRC-16/XMODEM (poly 0x1021,
// zero init, no reflection) for ZBIN and ZHEX, emitted big-endian, and
// CRC-32/ISO-HDLC (IEEE 802.3) for ZBIN32, emitted little-endian.
var (
	crc16Table = crc.NewTable(crc.XMODEM)
	crc32Table = crc.NewTable(crc.CRC32)
)

// crcLength returns the number of CRC octets an encoding carries.
func crcLength(encoding Encoding) int {
	if encoding == ZBIN32 {
		return 4
	}
	return 2
}

// makeCRC computes the CRC of data for the given encoding and returns
// its wire form: 2 bytes big-endian for ZBIN/ZHEX, 4 bytes
// little-endian for ZBIN32.
func makeCRC(data []byte, encoding Encoding) []byte {
	if encoding == ZBIN32 {
		var out [4]byte
		binary.LittleEndian.PutUint32(out[:], uint32(crc32Table.CalculateCRC(data)))
		return out[:]
	}
	var out [2]byte
	binary.BigEndian.PutUint16(out[:], uint16(crc16Table.CalculateCRC(data)))
	return out[:]
}

// checkCRC validates the received CRC octets against data.
func checkCRC(data, received []byte, encoding Encoding) error {
	expected := makeCRC(data, encoding)
	if len(received) != len(expected) {
		return newError(ErrData, "CRC length mismatch")
	}
	for i := range expected {
		if received[i] != expected[i] {
			return newError(ErrData, "CRC mismatch")
		}
	}
	return nil
}
