package zmodem

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// SSHTransfer runs ZModem transfers over an SSH session by starting
// the remote lrzsz counterpart and pumping the step-driven state
// machine over the session's stdin/stdout pipes.
type SSHTransfer struct {
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
	stderr  io.Reader
	port    Port
}

// NewSSHTransfer prepares an SSH session for ZModem transfers. The
// session must not have been started yet.
func NewSSHTransfer(session *ssh.Session) (*SSHTransfer, error) {
	stdin, err := session.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}

	return &SSHTransfer{
		session: session,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		port: NewPort(struct {
			io.Reader
			io.Writer
		}{stdout, stdin}),
	}, nil
}

// Send starts "rz" on the remote and sends the file to it, driving
// sender turns until the session completes or ctx is cancelled.
func (t *SSHTransfer) Send(ctx context.Context, state *State, file SendFile) error {
	if err := t.session.Start("rz"); err != nil {
		return err
	}
	return t.run(ctx, func() error {
		return Send(t.port, file, state)
	}, state)
}

// Receive starts "sz <name>" on the remote and receives the file into
// sink, driving receiver turns until the session completes or ctx is
// cancelled.
func (t *SSHTransfer) Receive(ctx context.Context, state *State, name string, sink io.Writer) error {
	if err := t.session.Start(fmt.Sprintf("sz %s", name)); err != nil {
		return err
	}
	return t.run(ctx, func() error {
		return Receive(t.port, sink, state)
	}, state)
}

// run pumps turns until done, watching the remote command and the
// context in the background.
func (t *SSHTransfer) run(ctx context.Context, turn func() error, state *State) error {
	done := make(chan error, 1)
	go func() {
		done <- t.session.Wait()
	}()

	var err error
	for state.Stage() != StageDone {
		select {
		case <-ctx.Done():
			t.stdin.Close()
			return ctx.Err()
		case waitErr := <-done:
			// Remote command exited before the session completed.
			t.stdin.Close()
			if waitErr != nil {
				return waitErr
			}
			return newError(ErrRead, "remote ended before session completed")
		default:
		}
		if err = turn(); err != nil {
			break
		}
	}

	t.stdin.Close()
	select {
	case waitErr := <-done:
		if err == nil {
			err = waitErr
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// Stderr returns the stderr reader for monitoring remote command
// output.
func (t *SSHTransfer) Stderr() io.Reader {
	return t.stderr
}

// Close closes the SSH session and its stdin pipe.
func (t *SSHTransfer) Close() error {
	var first error
	if t.stdin != nil {
		if err := t.stdin.Close(); err != nil {
			first = err
		}
	}
	if t.session != nil {
		if err := t.session.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
