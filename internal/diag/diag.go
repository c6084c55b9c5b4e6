// Package diag implements a small component-gated logger: each subsystem
// logs through the same Logger, but only components explicitly enabled (with
// Enable or EnableAll) actually print. Mirrors the teacher's
// internal/debug.CycleLogger shape (mutex-guarded, an enabled flag per
// stream) without its cycle-indexed file format.
package diag

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Component names one subsystem's log stream.
type Component string

const (
	Mapper  Component = "mapper"
	Config  Component = "config"
	Overlay Component = "overlay"
	HostIO  Component = "hostio"
	Knobs   Component = "knobs"
)

// Logger gates Printf calls per Component; disabled components are no-ops.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	enabled map[Component]bool
}

// New creates a Logger writing to out with every component disabled.
func New(out io.Writer) *Logger {
	return &Logger{out: out, enabled: map[Component]bool{}}
}

// NewStderr is the common case: a Logger writing to os.Stderr, matching the
// original driver's unconditional eprintln calls gated by a log-level flag.
func NewStderr() *Logger { return New(os.Stderr) }

// Enable turns on logging for c.
func (l *Logger) Enable(c Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled[c] = true
}

// EnableAll turns on every component; the load and overlay commands call it
// unconditionally at startup.
func (l *Logger) EnableAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range []Component{Mapper, Config, Overlay, HostIO, Knobs} {
		l.enabled[c] = true
	}
}

// Printf logs a formatted line for c if c is enabled.
func (l *Logger) Printf(c Component, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled[c] {
		return
	}
	fmt.Fprintf(l.out, "[%s] "+format+"\n", append([]any{c}, args...)...)
}
