package zmodem

// Stage is the phase of a transfer session.
type Stage int

const (
	// StageWaiting means the session has not exchanged init frames yet
	StageWaiting Stage = iota

	// StageReady means file metadata has been exchanged
	StageReady

	// StageInProgress means payload data is moving
	StageInProgress

	// StageDone means the session has terminated; further turns are
	// no-ops
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageWaiting:
		return "waiting"
	case StageReady:
		return "ready"
	case StageInProgress:
		return "in progress"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// maxFileName bounds the file name latched from a ZFILE frame and the
// name a send session may advertise.
const maxFileName = 256

// State carries a transfer session between turns. A State is bound to
// one direction for its lifetime: one created with NewState drives
// Receive, one created with NewFileState drives Send. The state
// machines own all mutation; callers read the accessors between turns.
type State struct {
	stage    Stage
	count    uint32
	fileName string
	fileSize uint32

	// buf stages one subpacket of unescaped payload between the codec
	// and the file. It is owned by the session and reused every turn.
	buf []byte

	logger Logger
}

// StateOption configures a State.
type StateOption func(*State)

// WithLogger attaches a logger for protocol tracing.
func WithLogger(logger Logger) StateOption {
	return func(s *State) {
		s.logger = logger
	}
}

// NewState creates a session for receiving a file.
func NewState(opts ...StateOption) *State {
	s := &State{
		stage:  StageWaiting,
		buf:    make([]byte, 0, bufferSize),
		logger: NoopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFileState creates a session for sending a file advertised with
// the given name and size. Fails if the name exceeds 256 octets.
func NewFileState(fileName string, fileSize uint32, opts ...StateOption) (*State, error) {
	if len(fileName) > maxFileName {
		return nil, newError(ErrData, "file name too long")
	}
	s := NewState(opts...)
	s.fileName = fileName
	s.fileSize = fileSize
	return s, nil
}

// Stage returns the current transfer stage.
func (s *State) Stage() Stage {
	return s.stage
}

// Count returns the cumulative byte offset of the current file: on the
// receive side the number of payload bytes written so far, on the send
// side the offset the peer most recently requested.
func (s *State) Count() uint32 {
	return s.count
}

// FileName returns the file name advertised or latched for this
// session.
func (s *State) FileName() string {
	return s.fileName
}

// FileSize returns the file size in bytes.
func (s *State) FileSize() uint32 {
	return s.fileSize
}
