package zmodem

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Header is a ZModem frame header: a frame type plus 4 flag bytes,
// wire-wrapped by an encoding prefix and CRC. For the offset-bearing
// frame types (ZRPOS, ZACK, ZDATA, ZEOF) the flag bytes hold a
// little-endian 32-bit count.
type Header struct {
	Encoding Encoding
	Type     FrameType
	Flags    [4]byte
}

// Ready-made headers for the responses the state machines emit.
var (
	zackHeader    = Header{Encoding: ZHEX, Type: ZACK}
	zdataHeader   = Header{Encoding: ZBIN32, Type: ZDATA}
	zeofHeader    = Header{Encoding: ZBIN32, Type: ZEOF}
	zfinHeader    = Header{Encoding: ZHEX, Type: ZFIN}
	znakHeader    = Header{Encoding: ZHEX, Type: ZNAK}
	zrposHeader   = Header{Encoding: ZHEX, Type: ZRPOS}
	zrqinitHeader = Header{Encoding: ZHEX, Type: ZRQINIT}
)

// Count returns the flag bytes as a little-endian 32-bit offset.
func (h Header) Count() uint32 {
	return binary.LittleEndian.Uint32(h.Flags[:])
}

// WithCount returns a copy of the header with the flag bytes replaced
// by a little-endian 32-bit offset.
func (h Header) WithCount(count uint32) Header {
	out := h
	binary.LittleEndian.PutUint32(out.Flags[:], count)
	return out
}

// String returns a human-readable representation for tracing.
func (h Header) String() string {
	return fmt.Sprintf("%s[%02x %02x %02x %02x]",
		h.Type, h.Flags[0], h.Flags[1], h.Flags[2], h.Flags[3])
}

// unescapedSize returns the serialized size of a header body for an
// encoding, counting the encoding byte but not the ZPAD/ZDLE prefix.
// For ZHEX the body is hex-expanded but the encoding byte is not,
// hence the subtraction.
func unescapedSize(encoding Encoding) int {
	switch encoding {
	case ZBIN:
		return 1 + 1 + 4 + 2
	case ZBIN32:
		return 1 + 1 + 4 + 4
	default: // ZHEX
		return (1+1+4)*2 + 4 - 1
	}
}

// Write encodes the header and writes it to the port.
//
// The wire form is ZPAD [ZPAD] ZDLE <encoding>, then the frame type,
// flag bytes, and CRC — escape-translated, and hex-expanded first for
// ZHEX. ZHEX headers end with CR LF, plus an XON for every frame type
// except ZACK and ZFIN.
func (h Header) Write(p Port) error {
	prefix := []byte{ZPAD, ZDLE, byte(h.Encoding)}
	if h.Encoding == ZHEX {
		prefix = []byte{ZPAD, ZPAD, ZDLE, byte(h.Encoding)}
	}
	if err := writeAll(p, prefix); err != nil {
		return err
	}

	body := make([]byte, 0, 9)
	body = append(body, byte(h.Type))
	body = append(body, h.Flags[:]...)
	body = append(body, makeCRC(body, h.Encoding)...)
	if h.Encoding == ZHEX {
		hexed := make([]byte, hex.EncodedLen(len(body)))
		hex.Encode(hexed, body)
		body = hexed
	}
	if err := writeEscaped(p, body); err != nil {
		return err
	}

	if h.Encoding == ZHEX {
		if err := writeByte(p, '\r'); err != nil {
			return err
		}
		if err := writeByte(p, '\n'); err != nil {
			return err
		}
		if h.Type != ZACK && h.Type != ZFIN {
			if err := writeByte(p, XON); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadHeader reads and decodes a frame header from the port. The
// caller must already have consumed the ZPAD [ZPAD] ZDLE prefix via
// readZPad.
func ReadHeader(p Port) (Header, error) {
	encByte, err := readByte(p)
	if err != nil {
		return Header{}, err
	}
	encoding, err := encodingFromByte(encByte)
	if err != nil {
		return Header{}, err
	}

	body := make([]byte, 0, 16)
	for i := 0; i < unescapedSize(encoding)-1; i++ {
		b, err := readByteUnescaped(p)
		if err != nil {
			return Header{}, err
		}
		body = append(body, b)
	}
	if encoding == ZHEX {
		decoded := make([]byte, hex.DecodedLen(len(body)))
		if _, err := hex.Decode(decoded, body); err != nil {
			return Header{}, newError(ErrData, "malformed hex header")
		}
		body = decoded
	}

	if err := checkCRC(body[:5], body[5:], encoding); err != nil {
		return Header{}, err
	}
	frameType, err := frameTypeFromByte(body[0])
	if err != nil {
		return Header{}, err
	}

	header := Header{Encoding: encoding, Type: frameType}
	copy(header.Flags[:], body[1:5])
	return header, nil
}

// readZPad aligns on the start of a frame by consuming the sequence
// ZPAD [ZPAD] ZDLE. Anything else is a data error; the state machines
// treat that turn as a no-op and let the caller retry.
func readZPad(p Port) error {
	b, err := readByte(p)
	if err != nil {
		return err
	}
	if b != ZPAD {
		return newError(ErrData, "expected ZPAD")
	}

	b, err = readByte(p)
	if err != nil {
		return err
	}
	if b == ZPAD {
		b, err = readByte(p)
		if err != nil {
			return err
		}
	}
	if b == ZDLE {
		return nil
	}
	return newError(ErrData, "expected ZDLE")
}
