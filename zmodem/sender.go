package zmodem

import "strconv"

// Send executes one sender turn against the session in state.
//
// A turn reads at most one frame from the port and answers it. The
// caller loops until State.Stage reports StageDone. A failure to align
// on a frame boundary is not an error; the turn simply ends and the
// next call retries.
func Send(p Port, file SendFile, state *State) error {
	if state.stage == StageDone {
		return nil
	}
	if state.stage == StageWaiting {
		if err := zrqinitHeader.Write(p); err != nil {
			return err
		}
	}
	if err := readZPad(p); err != nil {
		return nil
	}
	header, err := ReadHeader(p)
	if err != nil {
		state.logger.Debug("send: garbled header: %v", err)
		return znakHeader.Write(p)
	}
	state.traceFrame("send", header)

	switch header.Type {
	case ZRINIT:
		switch state.stage {
		case StageWaiting:
			if err := writeZFile(p, state); err != nil {
				return err
			}
			state.stage = StageReady
		case StageInProgress:
			return zfinHeader.Write(p)
		}

	case ZRPOS, ZACK:
		switch state.stage {
		case StageWaiting:
			return zrqinitHeader.Write(p)
		case StageReady, StageInProgress:
			state.count = header.Count()
			if err := writeZData(p, state, file, header.Count()); err != nil {
				return err
			}
			state.stage = StageInProgress
		}

	case ZFIN:
		switch state.stage {
		case StageWaiting:
			return zrqinitHeader.Write(p)
		case StageInProgress:
			// Over-and-out: two literal bytes, no framing, no escape.
			if err := writeByte(p, 'O'); err != nil {
				return err
			}
			if err := writeByte(p, 'O'); err != nil {
				return err
			}
			state.stage = StageDone
		}

	default:
		if state.stage == StageWaiting {
			return zrqinitHeader.Write(p)
		}
	}
	return nil
}

// writeZFile announces the file: a ZFILE header followed by a single
// ZCRCW subpacket carrying "name NUL size NUL" with the size in
// decimal ASCII.
func writeZFile(p Port, state *State) error {
	buf := state.buf[:0]
	buf = append(buf, state.fileName...)
	buf = append(buf, 0)
	buf = strconv.AppendUint(buf, uint64(state.fileSize), 10)
	buf = append(buf, 0)

	header := Header{Encoding: ZBIN32, Type: ZFILE}
	if err := header.Write(p); err != nil {
		return err
	}
	return writeSubpacket(p, ZBIN32, ZCRCW, buf)
}

// writeZData streams one burst of file data starting at the offset the
// peer requested: a ZDATA header, then up to subpacketsPerAck
// subpackets, all ZCRCG except a final ZCRCW that forces the peer to
// acknowledge. A zero-length first read means the offset is at EOF and
// a ZEOF header is sent instead.
func writeZData(p Port, state *State, file SendFile, offset uint32) error {
	chunk := state.buf[:bufferSize-2]
	if err := file.Seek(offset); err != nil {
		return err
	}
	count, err := fileRead(file, chunk)
	if err != nil {
		return err
	}
	if count == 0 {
		return zeofHeader.WithCount(offset).Write(p)
	}
	if err := zdataHeader.WithCount(offset).Write(p); err != nil {
		return err
	}
	for i := 1; i < subpacketsPerAck; i++ {
		if err := writeSubpacket(p, ZBIN32, ZCRCG, chunk[:count]); err != nil {
			return err
		}
		offset += uint32(count)

		count, err = fileRead(file, chunk)
		if err != nil {
			return err
		}
		if count < len(chunk) {
			break
		}
	}
	return writeSubpacket(p, ZBIN32, ZCRCW, chunk[:count])
}
