package zmodem

import "encoding/binary"

// Subpackets are the variable-length payload units following a ZDATA
// or ZFILE header. Each one ends with a ZDLE-marked terminator byte
// and a CRC computed over payload plus terminator. Only the binary
// encodings carry subpackets; real ZMODEM never transmits hex ones.

// subpacketCRC computes the wire CRC over payload plus terminator.
func subpacketCRC(data []byte, term Terminator, encoding Encoding) []byte {
	if encoding == ZBIN32 {
		v := crc32Table.InitCrc()
		v = crc32Table.UpdateCrc(v, data)
		v = crc32Table.UpdateCrc(v, []byte{byte(term)})
		var out [4]byte
		binary.LittleEndian.PutUint32(out[:], crc32Table.CRC32(v))
		return out[:]
	}
	v := crc16Table.InitCrc()
	v = crc16Table.UpdateCrc(v, data)
	v = crc16Table.UpdateCrc(v, []byte{byte(term)})
	var out [2]byte
	binary.BigEndian.PutUint16(out[:], crc16Table.CRC16(v))
	return out[:]
}

// writeSubpacket writes one data subpacket: the payload escaped, the
// ZDLE-marked terminator raw, then the CRC escaped.
func writeSubpacket(p Port, encoding Encoding, term Terminator, data []byte) error {
	if encoding == ZHEX {
		panic("zmodem: hex subpackets are not part of the protocol")
	}
	if err := writeEscaped(p, data); err != nil {
		return err
	}
	if err := writeByte(p, ZDLE); err != nil {
		return err
	}
	if err := writeByte(p, byte(term)); err != nil {
		return err
	}
	return writeEscaped(p, subpacketCRC(data, term, encoding))
}

// readSubpacket reads one subpacket into buf (the session scratch,
// reused between turns) and returns the payload and terminator.
//
// If the payload fills the buffer before a terminator shows up, the
// rest of the subpacket is discarded through skipSubpacketTail and an
// empty payload is returned with the observed terminator; the receive
// state machine then re-requests the data at its current offset. That
// keeps framing intact without growing the buffer.
func readSubpacket(p Port, buf []byte, encoding Encoding) ([]byte, Terminator, error) {
	buf = buf[:0]
	var term Terminator
	for {
		b, err := readByte(p)
		if err != nil {
			return nil, 0, err
		}
		if b == ZDLE {
			next, err := readByte(p)
			if err != nil {
				return nil, 0, err
			}
			if t, ok := terminatorFromByte(next); ok {
				// The CRC covers the terminator, so it joins the
				// buffer until validation.
				buf = append(buf, byte(t))
				term = t
				break
			}
			buf = append(buf, unzdleTable[next])
		} else {
			buf = append(buf, b)
		}

		if len(buf) == cap(buf) {
			t, err := skipSubpacketTail(p, encoding)
			if err != nil {
				return nil, 0, err
			}
			return buf[:0], t, nil
		}
	}

	var crcBuf [4]byte
	received := crcBuf[:crcLength(encoding)]
	for i := range received {
		b, err := readByteUnescaped(p)
		if err != nil {
			return nil, 0, err
		}
		received[i] = b
	}
	if err := checkCRC(buf, received, encoding); err != nil {
		return nil, 0, err
	}
	return buf[:len(buf)-1], term, nil
}

// skipSubpacketTail discards bytes until a ZDLE-terminator pair, then
// consumes the trailing CRC without validating it.
func skipSubpacketTail(p Port, encoding Encoding) (Terminator, error) {
	var term Terminator
	for {
		b, err := readByte(p)
		if err != nil {
			return 0, err
		}
		if b != ZDLE {
			continue
		}
		next, err := readByte(p)
		if err != nil {
			return 0, err
		}
		if t, ok := terminatorFromByte(next); ok {
			term = t
			break
		}
	}
	for i := 0; i < crcLength(encoding); i++ {
		if _, err := readByteUnescaped(p); err != nil {
			return 0, err
		}
	}
	return term, nil
}
