// Package logger provides verbose logging for Ansa.
// When verbose mode is enabled via the --verbose flag, the indexing
// and retrieval pipeline narrates its decisions to stderr: chunk
// counts, retrieval scores, threshold comparisons.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose switches pipeline narration on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether narration is currently on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects narration away from os.Stderr. Tests use it to
// capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// emit writes one tagged line when verbose mode is on. The read lock
// covers the write so SetOutput never races a log line.
func emit(tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, tag+" "+format+"\n", args...)
}

// Debug narrates low-level pipeline detail.
func Debug(format string, args ...any) {
	emit("[DEBUG]", format, args...)
}

// Info narrates pipeline progress.
func Info(format string, args ...any) {
	emit("[INFO]", format, args...)
}

// Warn narrates recoverable problems.
func Warn(format string, args ...any) {
	emit("[WARN]", format, args...)
}

// Section marks the start of a pipeline stage in the narration.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
