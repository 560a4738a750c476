// Package logging provides the levelled logger shared by the engine packages.
// Every component receives a Logger through a WithLogger option and prefixes its
// lines with its own component tag, e.g. "[IBL] INFO: precompute recorded".
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger is the levelled logging surface used across the engine.
type Logger interface {
	// DebugEnabled reports whether Debugf output is currently emitted.
	DebugEnabled() bool

	// SetDebug toggles Debugf output.
	SetDebug(enabled bool)

	// With returns a Logger that shares this logger's outputs and debug state
	// but tags every line with the given component prefix.
	With(prefix string) Logger

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type defaultLogger struct {
	state  *loggerState
	prefix string
}

type loggerState struct {
	mu    sync.Mutex
	debug bool
	out   *log.Logger
	err   *log.Logger
}

var _ Logger = &defaultLogger{}

var (
	defaultOnce sync.Once
	defaultInst Logger
)

// New creates a Logger writing info and debug lines to out and warnings and errors to errOut.
//
// Parameters:
//   - prefix: the component tag printed in brackets before the level
//   - debug: whether Debugf output is enabled initially
//   - out: destination for DEBUG and INFO lines
//   - errOut: destination for WARN and ERROR lines
//
// Returns:
//   - Logger: the configured logger
func New(prefix string, debug bool, out, errOut io.Writer) Logger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &defaultLogger{
		state: &loggerState{
			debug: debug,
			out:   log.New(out, "", flags),
			err:   log.New(errOut, "", flags),
		},
		prefix: prefix,
	}
}

// Default returns the process-wide logger writing to stdout and stderr.
// It is created once; components tag it with their own prefix via With.
func Default() Logger {
	defaultOnce.Do(func() {
		defaultInst = New("", os.Getenv("OXY_DEBUG") != "", os.Stdout, os.Stderr)
	})
	return defaultInst
}

// Discard returns a Logger that drops every line. Used by tests.
func Discard() Logger {
	return New("", false, io.Discard, io.Discard)
}

func (l *defaultLogger) DebugEnabled() bool {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	return l.state.debug
}

func (l *defaultLogger) SetDebug(enabled bool) {
	l.state.mu.Lock()
	l.state.debug = enabled
	l.state.mu.Unlock()
}

func (l *defaultLogger) With(prefix string) Logger {
	return &defaultLogger{state: l.state, prefix: prefix}
}

func (l *defaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.state.out.Print(l.format("DEBUG", format, args...))
}

func (l *defaultLogger) Infof(format string, args ...any) {
	l.state.out.Print(l.format("INFO", format, args...))
}

func (l *defaultLogger) Warnf(format string, args ...any) {
	l.state.err.Print(l.format("WARN", format, args...))
}

func (l *defaultLogger) Errorf(format string, args ...any) {
	l.state.err.Print(l.format("ERROR", format, args...))
}

func (l *defaultLogger) format(level string, format string, args ...any) string {
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, fmt.Sprintf(format, args...))
	}
	return fmt.Sprintf("%s: %s", level, fmt.Sprintf(format, args...))
}
