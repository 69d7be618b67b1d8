package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level is a logging verbosity level. Higher levels include lower ones.
type Level int32

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelDebug:
		return "DEBUG"
	default:
		return "INFO"
	}
}

// ParseLevel maps a config value such as "debug" or "WARN" to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG", "TRACE":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Logger provides leveled logging over the standard log package.
type Logger struct {
	level atomic.Int32
	out   *log.Logger
}

// New creates a logger writing to w at the given level.
func New(w io.Writer, level Level) *Logger {
	l := &Logger{out: log.New(w, "", log.LstdFlags)}
	l.level.Store(int32(level))
	return l
}

// SetLevel changes the verbosity at runtime.
func (l *Logger) SetLevel(level Level) { l.level.Store(int32(level)) }

// Level returns the current verbosity.
func (l *Logger) Level() Level { return Level(l.level.Load()) }

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool { return l.Level() >= level }

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || !l.Enabled(level) {
		return
	}
	l.out.Printf("["+level.String()+"] "+format, args...)
}

func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }

// Writer exposes the underlying writer, e.g. for chi's request logger.
func (l *Logger) Writer() io.Writer { return l.out.Writer() }

var std = New(os.Stderr, LevelWarn)

// Default returns the process-wide logger configured by the CLI.
func Default() *Logger { return std }

// Configure sets the process-wide level from a config string; debug forces LevelDebug.
func Configure(level string, debug bool) {
	if debug {
		std.SetLevel(LevelDebug)
		return
	}
	std.SetLevel(ParseLevel(level))
}

func Errorf(format string, args ...any) { std.Errorf(format, args...) }
func Warnf(format string, args ...any)  { std.Warnf(format, args...) }
func Infof(format string, args ...any)  { std.Infof(format, args...) }
func Debugf(format string, args ...any) { std.Debugf(format, args...) }
