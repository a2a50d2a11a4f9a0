// Package debug provides conditional debug logging and the diagnostic error
// channel for pi.
//
// Verbose logging is enabled by setting the PI_DEBUG environment variable:
//
//	PI_DEBUG=1 pi --robot-snapshot
//
// When disabled (default), Log and friends are no-ops with zero overhead.
//
// Errorf is different: it is always on. Request failures that the dashboard
// swallows are written there so they can be inspected later. The TUI points
// both channels at a log file so the screen is never corrupted.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	mu sync.Mutex
	// enabled is true when PI_DEBUG env var is set
	enabled bool
	// logger writes verbose messages with [PI_DEBUG] prefix
	logger *log.Logger
	// errLogger receives swallowed errors regardless of enabled
	errLogger = log.New(os.Stderr, "[PI_ERROR] ", log.LstdFlags)
)

func init() {
	if os.Getenv("PI_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[PI_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[PI_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects both the debug and the error channel.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		logger.SetOutput(w)
	}
	errLogger.SetOutput(w)
}

// SetErrorOutput redirects only the error channel.
func SetErrorOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	errLogger.SetOutput(w)
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// LogEnterExit logs function entry and exit with timing.
//
//	defer debug.LogEnterExit("snapshot.Load")()
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if !enabled {
		return
	}
	logger.Printf("%s: %T = %+v", name, v, v)
}

// Errorf records an error on the diagnostic channel. It is never a no-op.
func Errorf(format string, args ...any) {
	errLogger.Printf(format, args...)
}
