package zmodem

import (
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Receive executes one receiver turn against the session in state.
//
// Mirrors Send: one inbound frame plus any attached subpackets per
// call, responses written before returning. The caller loops until
// State.Stage reports StageDone, then the sink holds the file.
func Receive(p Port, file io.Writer, state *State) error {
	if state.stage == StageDone {
		return nil
	}
	if state.stage == StageWaiting {
		if err := writeZRInit(p); err != nil {
			return err
		}
	}
	if err := readZPad(p); err != nil {
		return nil
	}
	header, err := ReadHeader(p)
	if err != nil {
		state.logger.Debug("receive: garbled header: %v", err)
		return znakHeader.Write(p)
	}
	state.traceFrame("receive", header)

	switch header.Type {
	case ZFILE:
		switch state.stage {
		case StageWaiting, StageReady:
			if err := readZFile(p, state, header.Encoding); err != nil {
				return err
			}
			state.stage = StageReady
		}

	case ZDATA:
		switch state.stage {
		case StageWaiting:
			return writeZRInit(p)
		case StageReady, StageInProgress:
			if header.Count() != state.count {
				// The receiver's own offset is authoritative; make
				// the sender seek to it.
				return zrposHeader.WithCount(state.count).Write(p)
			}
			if err := readZData(p, state, header.Encoding, file); err != nil {
				return err
			}
			state.stage = StageInProgress
		}

	case ZEOF:
		if state.stage == StageInProgress && header.Count() == state.count {
			return writeZRInit(p)
		}

	case ZFIN:
		if state.stage == StageInProgress {
			if err := zfinHeader.Write(p); err != nil {
				return err
			}
			state.stage = StageDone
		}
	}
	return nil
}

// writeZRInit advertises the receiver's capabilities. The capability
// byte travels in the fourth flag byte; keep that layout.
func writeZRInit(p Port) error {
	header := Header{
		Encoding: ZHEX,
		Type:     ZRINIT,
		Flags:    [4]byte{0, 0, 0, CANFDX | CANOVIO | CANFC32},
	}
	return header.Write(p)
}

// readZFile reads the subpacket attached to a ZFILE header and latches
// the advertised file name and size. The payload is "name NUL size
// [whitespace extras] NUL"; fields past the size are not interpreted.
func readZFile(p Port, state *State, encoding Encoding) error {
	payload, _, err := readSubpacket(p, state.buf, encoding)
	if err != nil {
		state.logger.Debug("receive: bad ZFILE subpacket: %v", err)
		return znakHeader.Write(p)
	}
	if !utf8.Valid(payload) {
		return newFrameError(ErrData, "file metadata is not UTF-8", ZFILE)
	}
	fields := strings.Split(string(payload), "\x00")
	if len(fields[0]) > maxFileName {
		return newFrameError(ErrData, "file name too long", ZFILE)
	}
	state.fileName = fields[0]
	if len(fields) > 1 {
		if sizeField := strings.Fields(fields[1]); len(sizeField) > 0 {
			size, err := strconv.ParseUint(sizeField[0], 10, 32)
			if err != nil {
				return newFrameError(ErrData, "malformed file size", ZFILE)
			}
			state.fileSize = uint32(size)
		}
	}
	return zrposHeader.WithCount(0).Write(p)
}

// readZData consumes the subpacket stream attached to a ZDATA header,
// writing payloads to the file sink and answering per terminator. A
// CRC failure asks for a resend with ZNAK; an empty payload is the
// buffer-overflow recovery path and re-requests data at the current
// offset with ZRPOS.
func readZData(p Port, state *State, encoding Encoding, file io.Writer) error {
	for {
		payload, term, err := readSubpacket(p, state.buf, encoding)
		if err != nil {
			if IsData(err) {
				if err := znakHeader.WithCount(state.count).Write(p); err != nil {
					return err
				}
				continue
			}
			return err
		}
		if len(payload) == 0 {
			if err := zrposHeader.WithCount(state.count).Write(p); err != nil {
				return err
			}
		}
		if _, err := file.Write(payload); err != nil {
			return newError(ErrWrite, "file write failed")
		}
		state.count += uint32(len(payload))

		switch term {
		case ZCRCW:
			return zackHeader.WithCount(state.count).Write(p)
		case ZCRCE:
			return nil
		case ZCRCQ:
			if err := zackHeader.WithCount(state.count).Write(p); err != nil {
				return err
			}
		case ZCRCG:
			// Stream continues nonstop.
		}
	}
}
