package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/drunlade/go-zmodem2/zmodem"
)

var (
	verbose   = flag.Bool("v", false, "verbose mode")
	quiet     = flag.Bool("q", false, "quiet mode")
	device    = flag.String("device", "", "serial device to use instead of stdin/stdout")
	baud      = flag.Int("baud", 115200, "serial baud rate")
	outputDir = flag.String("dir", ".", "directory to write the received file into")
	logPath   = flag.String("log", "", "write a protocol trace to this file")
	help      = flag.Bool("h", false, "show help")
	version   = flag.Bool("version", false, "show version")
)

const versionString = "zrecv version 0.1.0"

func main() {
	flag.Parse()

	if *help {
		showUsage(0)
	}

	if *version {
		fmt.Println(versionString)
		os.Exit(0)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := signalContext(sigChan)
	defer cancel()

	opts := stateOptions()
	state := zmodem.NewState(opts...)

	port, closePort, err := openTransport()
	if err != nil {
		fatal("%v", err)
	}
	defer closePort()

	reporter := zmodem.NewTurnReporter(state, progressCallback(), 100*time.Millisecond)

	// The file name arrives mid-session with ZFILE, so the sink is a
	// spool that is renamed once the peer has told us what it is.
	spool, err := os.CreateTemp(*outputDir, ".zrecv-*")
	if err != nil {
		fatal("create spool: %v", err)
	}
	spoolPath := spool.Name()
	defer os.Remove(spoolPath)

	for state.Stage() != zmodem.StageDone {
		select {
		case <-ctx.Done():
			spool.Close()
			fatal("interrupted")
		default:
		}
		if err := zmodem.Receive(port, spool, state); err != nil {
			spool.Close()
			fatal("receive: %v", err)
		}
		reporter.Tick()
	}
	duration := reporter.Done()

	if err := spool.Close(); err != nil {
		fatal("close spool: %v", err)
	}
	// Received names may carry path separators; keep the base only.
	target := filepath.Join(*outputDir, filepath.Base(state.FileName()))
	if err := os.Rename(spoolPath, target); err != nil {
		fatal("rename: %v", err)
	}

	if !*quiet {
		if *verbose {
			fmt.Fprintf(os.Stderr, "\nReceived: %s (%d bytes in %v)\n",
				target, state.Count(), duration)
		} else {
			fmt.Fprintf(os.Stderr, "%s\n", target)
		}
	}
}

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
	fmt.Fprintf(os.Stderr, `%s - receive a file with the ZMODEM protocol

Usage: %s [options]

Options:
  -device DEV      serial device (default: stdin/stdout)
  -baud N          serial baud rate (default: 115200)
  -dir DIR         directory for the received file (default: .)
  -log FILE        write a protocol trace to FILE
  -h               show this help message
  -q               quiet mode, minimal output
  -v               verbose mode with progress
  -version         show version

Examples:
  %s                          # Receive over stdin/stdout
  %s -device /dev/ttyUSB0 -v  # Receive over a serial line
`, versionString, os.Args[0], os.Args[0], os.Args[0])
	os.Exit(exitcode)
}
