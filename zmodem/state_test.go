package zmodem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	state := NewState()
	require.Equal(t, StageWaiting, state.Stage())
	require.Equal(t, uint32(0), state.Count())
	require.Empty(t, state.FileName())
	require.Equal(t, uint32(0), state.FileSize())
}

func TestNewFileState(t *testing.T) {
	state, err := NewFileState("notes.txt", 1234)
	require.NoError(t, err)
	require.Equal(t, StageWaiting, state.Stage())
	require.Equal(t, "notes.txt", state.FileName())
	require.Equal(t, uint32(1234), state.FileSize())
}

func TestStateScratchCapacity(t *testing.T) {
	// The scratch buffer must hold one maximum-size subpacket without
	// growing; overflow recovery depends on the capacity bound.
	state := NewState()
	require.Equal(t, bufferSize, cap(state.buf))
	require.Zero(t, len(state.buf))
}

func TestStageString(t *testing.T) {
	require.Equal(t, "waiting", StageWaiting.String())
	require.Equal(t, "ready", StageReady.String())
	require.Equal(t, "in progress", StageInProgress.String())
	require.Equal(t, "done", StageDone.String())
}

func TestWithLogger(t *testing.T) {
	logged := false
	state := NewState(WithLogger(funcLogger(func() { logged = true })))
	state.logger.Debug("probe")
	require.True(t, logged)
}

// funcLogger calls f on every log line, for option plumbing tests.
type funcLogger func()

func (f funcLogger) Debug(format string, args ...interface{}) { f() }
func (f funcLogger) Info(format string, args ...interface{})  { f() }
func (f funcLogger) Error(format string, args ...interface{}) { f() }

func TestErrorFormatting(t *testing.T) {
	err := newError(ErrData, "CRC mismatch")
	require.Equal(t, "zmodem data error: CRC mismatch", err.Error())

	err = newFrameError(ErrData, "file name too long", ZFILE)
	require.Equal(t, "zmodem data error: file name too long (frame: ZFILE)", err.Error())

	require.True(t, IsData(err))
	require.False(t, IsRead(err))
	require.False(t, IsWrite(err))
}

func TestFrameTypeNames(t *testing.T) {
	require.Equal(t, "ZRQINIT", ZRQINIT.String())
	require.Equal(t, "ZSTDERR", ZSTDERR.String())
	require.Equal(t, "UNKNOWN", FrameType(0x42).String())
}
