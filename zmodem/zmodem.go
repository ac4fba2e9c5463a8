// Package zmodem implements the ZMODEM file transfer protocol as a
// synchronous, step-driven codec.
//
// ZModem is a file transfer protocol designed for use over serial
// connections, commonly used over SSH sessions. Unlike a blocking
// transfer loop, this package performs one frame transaction per call:
// the caller creates a State, then repeatedly invokes Send or Receive
// until State.Stage reports StageDone. Each call reads at most one
// frame (plus any attached subpackets) from the transport, advances the
// state machine, and writes the response frames. Pacing, timeouts, and
// cancellation stay with the caller, which simply stops calling.
package zmodem

// Frame format indicators
const (
	// ZPAD is the padding character that begins frames
	ZPAD = '*'

	// ZDLE is the ZModem escape character (Ctrl-X)
	ZDLE = 0x18

	// ZDLEE is the escaped ZDLE as transmitted
	ZDLEE = ZDLE ^ 0x40
)

// Encoding identifies the wire encoding of a frame header.
type Encoding byte

const (
	// ZBIN indicates a binary frame with 16-bit CRC
	ZBIN Encoding = 0x41

	// ZHEX indicates a hex-encoded frame with 16-bit CRC
	ZHEX Encoding = 0x42

	// ZBIN32 indicates a binary frame with 32-bit CRC
	ZBIN32 Encoding = 0x43
)

// encodingFromByte validates a wire encoding byte.
func encodingFromByte(b byte) (Encoding, error) {
	switch Encoding(b) {
	case ZBIN, ZHEX, ZBIN32:
		return Encoding(b), nil
	}
	return 0, newError(ErrData, "unknown frame encoding")
}

// FrameType identifies the type of a frame header.
type FrameType byte

// Frame types (see frametypes array in zm.c)
const (
	ZRQINIT    FrameType = iota // Request receive init
	ZRINIT                      // Receive init
	ZSINIT                      // Send init sequence (optional)
	ZACK                        // ACK to above
	ZFILE                       // File name from sender
	ZSKIP                       // To sender: skip this file
	ZNAK                        // Last packet was garbled
	ZABORT                      // Abort batch transfers
	ZFIN                        // Finish session
	ZRPOS                       // Resume data trans at this position
	ZDATA                       // Data packet(s) follow
	ZEOF                        // End of file
	ZFERR                       // Fatal Read or Write error Detected
	ZCRC                        // Request for file CRC and response
	ZCHALLENGE                  // Receiver's Challenge
	ZCOMPL                      // Request is complete
	ZCAN                        // Other end canned session with CAN*5
	ZFREECNT                    // Request for free bytes on filesystem
	ZCOMMAND                    // Command from sending program
	ZSTDERR                     // Output to standard error, data follows
)

// frameTypeFromByte validates a wire frame-type byte. Values above
// ZSTDERR are not part of the 1988 protocol and are rejected.
func frameTypeFromByte(b byte) (FrameType, error) {
	if b > byte(ZSTDERR) {
		return 0, newError(ErrData, "unknown frame type")
	}
	return FrameType(b), nil
}

// Terminator ends a data subpacket and encodes its flow policy.
type Terminator byte

// ZDLE sequences
const (
	// ZCRCE - CRC next, frame ends, header packet follows
	ZCRCE Terminator = 0x68

	// ZCRCG - CRC next, frame continues nonstop
	ZCRCG Terminator = 0x69

	// ZCRCQ - CRC next, frame continues, ZACK expected
	ZCRCQ Terminator = 0x6a

	// ZCRCW - CRC next, ZACK expected, end of frame
	ZCRCW Terminator = 0x6b
)

// terminatorFromByte reports whether b is a subpacket terminator.
func terminatorFromByte(b byte) (Terminator, bool) {
	switch Terminator(b) {
	case ZCRCE, ZCRCG, ZCRCQ, ZCRCW:
		return Terminator(b), true
	}
	return 0, false
}

// Bit Masks for ZRINIT flags byte ZF0
const (
	CANFDX  = 0x01 // Rx can send and receive true FDX
	CANOVIO = 0x02 // Rx can receive data during disk I/O
	CANBRK  = 0x04 // Rx can send a break signal
	CANCRY  = 0x08 // Receiver can decrypt
	CANLZW  = 0x10 // Receiver can uncompress
	CANFC32 = 0x20 // Receiver can use 32 bit Frame Check
	ESCCTL  = 0x40 // Receiver expects ctl chars to be escaped
	ESC8    = 0x80 // Receiver expects 8th bit to be escaped
)

// Ward Christensen / CP/M parameters - Don't change these!
const (
	XON  = 0x11
	XOFF = 0x13
)

const (
	// bufferSize is the size of the unescaped subpacket payload,
	// the maximum subpacket size in the 1988 ZMODEM specification.
	bufferSize = 1024

	// subpacketsPerAck is the length of a streaming burst: one ZDATA
	// header followed by at most this many subpackets, the last of
	// which is ZCRCW and forces an acknowledgement.
	subpacketsPerAck = 10
)

// frametypes provides human-readable names for frame types.
// Used for debugging and logging.
var frametypes = []string{
	"ZRQINIT",
	"ZRINIT",
	"ZSINIT",
	"ZACK",
	"ZFILE",
	"ZSKIP",
	"ZNAK",
	"ZABORT",
	"ZFIN",
	"ZRPOS",
	"ZDATA",
	"ZEOF",
	"ZFERR",
	"ZCRC",
	"ZCHALLENGE",
	"ZCOMPL",
	"ZCAN",
	"ZFREECNT",
	"ZCOMMAND",
	"ZSTDERR",
}

// String returns the human-readable name for a frame type.
// Returns "UNKNOWN" for invalid frame types.
func (t FrameType) String() string {
	if int(t) >= len(frametypes) {
		return "UNKNOWN"
	}
	return frametypes[t]
}
