package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/drunlade/go-zmodem2/zmodem"
)

var (
	verbose = flag.Bool("v", false, "verbose mode")
	quiet   = flag.Bool("q", false, "quiet mode")
	device  = flag.String("device", "", "serial device to use instead of stdin/stdout")
	baud    = flag.Int("baud", 115200, "serial baud rate")
	logPath = flag.String("log", "", "write a protocol trace to this file")
	help    = flag.Bool("h", false, "show help")
	version = flag.Bool("version", false, "show version")
)

const versionString = "zsend version 0.1.0"

func main() {
	flag.Parse()

	if *help {
		showUsage(0)
	}

	if *version {
		fmt.Println(versionString)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "%s: exactly one file must be specified\n", os.Args[0])
		showUsage(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := signalContext(sigChan)
	defer cancel()

	file, err := os.Open(args[0])
	if err != nil {
		fatal("open %s: %v", args[0], err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		fatal("stat %s: %v", args[0], err)
	}
	if info.IsDir() {
		fatal("%s is a directory", args[0])
	}
	if info.Size() > math.MaxUint32 {
		fatal("%s exceeds the 4 GiB ZMODEM size limit", args[0])
	}

	opts := stateOptions()
	state, err := zmodem.NewFileState(filepath.Base(args[0]), uint32(info.Size()), opts...)
	if err != nil {
		fatal("%v", err)
	}

	port, closePort, err := openTransport()
	if err != nil {
		fatal("%v", err)
	}
	defer closePort()

	reporter := zmodem.NewTurnReporter(state, progressCallback(), 100*time.Millisecond)

	sendFile := zmodem.NewSendFile(file)
	for state.Stage() != zmodem.StageDone {
		select {
		case <-ctx.Done():
			fatal("interrupted")
		default:
		}
		if err := zmodem.Send(port, sendFile, state); err != nil {
			fatal("send: %v", err)
		}
		reporter.Tick()
	}
	duration := reporter.Done()

	if !*quiet {
		if *verbose {
			fmt.Fprintf(os.Stderr, "\nCompleted: %s (%d bytes in %v)\n",
				state.FileName(), info.Size(), duration)
		} else {
			fmt.Fprintf(os.Stderr, "%s\n", state.FileName())
		}
	}
}

// stateOptions builds the session options from the flags.
func stateOptions() []zmodem.StateOption {
	if *logPath == "" {
		return nil
	}
	logger, err := zmodem.NewTraceLog(*logPath)
	if err != nil {
		fatal("open log: %v", err)
	}
	return []zmodem.StateOption{zmodem.WithLogger(logger)}
}

// openTransport opens the serial device, or wraps stdin/stdout with
// the terminal switched to raw mode when attached to one.
func openTransport() (zmodem.Port, func(), error) {
	if *device != "" {
		sp, err := zmodem.OpenSerialPort(*device, *baud)
		if err != nil {
			return nil, nil, err
		}
		return sp, func() { sp.Close() }, nil
	}

	restore := func() {}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return nil, nil, err
		}
		restore = func() { term.Restore(fd, oldState) }
	}

	port := zmodem.NewPort(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout})
	return port, restore, nil
}

func progressCallback() func(string, int64, int64, float64) {
	return func(filename string, transferred, total int64, rate float64) {
		if *quiet || !*verbose {
			return
		}
		percent := float64(0)
		if total > 0 {
			percent = float64(transferred) / float64(total) * 100
		}
		fmt.Fprintf(os.Stderr, "\r%s: %.1f%% (%.0f bytes/s)", filename, percent, rate)
	}
}

func signalContext(sigChan chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func showUsage(exitcode int) {
	fmt.Fprintf(os.Stderr, `%s - send a file with the ZMODEM protocol

Usage: %s [options] file

Options:
  -device DEV      serial device (default: stdin/stdout)
  -baud N          serial baud rate (default: 115200)
  -log FILE        write a protocol trace to FILE
  -h               show this help message
  -q               quiet mode, minimal output
  -v               verbose mode with progress
  -version         show version

Examples:
  %s file.txt                      # Send over stdin/stdout
  %s -device /dev/ttyUSB0 file.txt # Send over a serial line
`, versionString, os.Args[0], os.Args[0], os.Args[0])
	os.Exit(exitcode)
}
