// Package debug provides leveled diagnostic logging for the indexer and
// pipeline, gated by a build-time flag or a runtime environment override.
// Diagnostics here are collaborators the storage engine and pipeline call
// into; the logging format and plumbing itself follows the teacher's
// internal/debug package.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnableDebug is a build flag for debug mode, overridable at build time:
// go build -ldflags "-X github.com/standardbeagle/lciindex/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// QuietMode suppresses all debug output regardless of EnableDebug/DEBUG.
// It is off by default and only changes through SetQuietMode or a direct
// assignment.
var QuietMode = false

var (
	debugOutput io.Writer
	debugFile   *os.File
	debugMutex  sync.Mutex
)

// SetQuietMode suppresses diagnostic output entirely when enabled.
func SetQuietMode(enabled bool) {
	QuietMode = enabled
}

// SetDebugOutput sets a custom writer for debug output. Pass nil to disable
// debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile initializes debug logging to a timestamped file under
// the OS temp directory and returns its path.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "lciindex-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		debugOutput = nil
		return err
	}
	return nil
}

// IsDebugEnabled reports whether debug output should be produced.
func IsDebugEnabled() bool {
	if QuietMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	if v := os.Getenv("DEBUG"); v == "1" || v == "true" {
		return true
	}
	return false
}

func getDebugWriter() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf prints debug information only when debug mode is enabled and
// output is configured.
func Printf(format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG] "+format, args...)
}

// Println prints debug information only when debug mode is enabled and
// output is configured.
func Println(args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprint(w, "[DEBUG] ")
	fmt.Fprintln(w, args...)
}

// Log provides structured debug logging with a component name.
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
}

// LogIndex logs facade/storage-engine diagnostics.
func LogIndex(format string, args ...interface{}) {
	Log("INDEX", format, args...)
}

// LogPipeline logs ingestion pipeline diagnostics.
func LogPipeline(format string, args ...interface{}) {
	Log("PIPELINE", format, args...)
}

// LogBlockFile logs block-file primitive diagnostics.
func LogBlockFile(format string, args ...interface{}) {
	Log("BLOCKFILE", format, args...)
}

// Fatal formats a catastrophic error message, logs it, and returns it as an
// error for the caller to handle — it does not call os.Exit.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !QuietMode {
		if w := getDebugWriter(); w != nil {
			fmt.Fprintf(w, "[FATAL] %s", msg)
		}
	}
	return fmt.Errorf("fatal error: %s", msg)
}

// FatalAndExit logs a catastrophic error and exits. Only call from main.go
// or another CLI entry point.
func FatalAndExit(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !QuietMode {
		if w := getDebugWriter(); w != nil {
			fmt.Fprintf(w, "[FATAL] %s", msg)
		}
	}
	os.Exit(1)
}

// CatastrophicError logs an error indicating system-level failure.
func CatastrophicError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !QuietMode {
		if w := getDebugWriter(); w != nil {
			fmt.Fprintf(w, "[CATASTROPHIC] %s", msg)
		}
	}
}
