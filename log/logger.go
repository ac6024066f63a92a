// Package log is a minimal leveled logger, adapted from golang-dep's
// io.Writer-backed Logger to carry the four DEBUG verbosity levels the
// --log_level flag requires.
package log

import (
	"fmt"
	"io"
)

// Logger is a minimal wrapper around an io.Writer with a verbosity level.
// Level 0 only logs via Logln/Logf; levels 1-4 gate Debugf calls, matching
// finer-grained DEBUG levels.
type Logger struct {
	io.Writer
	Level int
}

// New returns a new logger which writes to w at level 0.
func New(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// Logln logs a line unconditionally.
func (l *Logger) Logln(args ...interface{}) {
	fmt.Fprintln(l, args...)
}

// Logf logs a formatted string unconditionally.
func (l *Logger) Logf(f string, args ...interface{}) {
	fmt.Fprintf(l, f, args...)
}

// LogDepfln logs a formatted line, prefixed with `depsplit: `.
func (l *Logger) LogDepfln(format string, args ...interface{}) {
	fmt.Fprintf(l, "depsplit: "+format+"\n", args...)
}

// Debugf logs a formatted line prefixed with its level, but only if the
// logger's configured Level is at least as verbose as level. Levels run
// 1 (coarse) through 4 (finest), per the --log_level contract.
func (l *Logger) Debugf(level int, format string, args ...interface{}) {
	if l.Level < level {
		return
	}
	fmt.Fprintf(l, "[DEBUG%d] "+format+"\n", append([]interface{}{level}, args...)...)
}
