// Package logging provides the leveled, nil-safe logger used throughout
// shadowfs. Every subsystem receives a *Logger at construction time and logs
// degradations (a filtered rule, a failed transform step, a cache eviction)
// rather than returning them as errors, per the project's absorption policy:
// only the kernel callback handler's own failures and backing-filesystem
// errors are allowed to surface past a component boundary.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	errorPrefix = color.New(color.FgRed, color.Bold).SprintFunc()
	warnPrefix  = color.New(color.FgYellow, color.Bold).SprintFunc()
	infoPrefix  = color.New(color.FgCyan).SprintFunc()
	debugPrefix = color.New(color.FgMagenta).SprintFunc()
	tracePrefix = color.New(color.FgWhite).SprintFunc()
)

func init() {
	// Disable colorization automatically when standard error isn't a
	// terminal (e.g. when running under a kernel/daemon supervisor or when
	// output is redirected to a log file).
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		color.NoColor = true
	}
}

// Logger is the project's logger type. A nil *Logger is valid and silently
// discards all output, so components can be constructed with a nil logger in
// tests without special-casing every call site.
type Logger struct {
	prefix string
	level  Level
	output *log.Logger
}

// NewLogger creates a root logger at the given level, writing to w. If w is
// nil, os.Stderr is used.
func NewLogger(level Level, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		level:  level,
		output: log.New(w, "", log.LstdFlags),
	}
}

// Sublogger creates a derived logger with a dotted name prefix, inheriting
// the parent's level and output.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{
		prefix: prefix,
		level:  l.level,
		output: l.output,
	}
}

// Enabled reports whether messages at the given level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && l.level >= level
}

func (l *Logger) emit(level Level, colorize func(a ...interface{}) string, format string, v []interface{}) {
	if l == nil || l.level < level {
		return
	}
	line := fmt.Sprintf(format, v...)
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	l.output.Output(4, colorize(level.String()+": ")+line)
}

// Error logs a fatal-class condition.
func (l *Logger) Error(format string, v ...interface{}) { l.emit(LevelError, errorPrefix, format, v) }

// Warn logs a non-fatal degradation.
func (l *Logger) Warn(format string, v ...interface{}) { l.emit(LevelWarn, warnPrefix, format, v) }

// Info logs a basic lifecycle event.
func (l *Logger) Info(format string, v ...interface{}) { l.emit(LevelInfo, infoPrefix, format, v) }

// Debug logs per-request resolution detail.
func (l *Logger) Debug(format string, v ...interface{}) { l.emit(LevelDebug, debugPrefix, format, v) }

// Trace logs byte-level detail.
func (l *Logger) Trace(format string, v ...interface{}) { l.emit(LevelTrace, tracePrefix, format, v) }
