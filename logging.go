// logging.go - structured logging for the runtime's own diagnostics.
//
// The task machinery and executor loop log through this interface
// rather than writing to stdout directly, so a host
// application can redirect runtime diagnostics into its own logging
// pipeline.

package kestrel

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// LogLevel represents the severity of a diagnostic message.
type LogLevel int32

const (
	// LevelDebug for detailed diagnostic information.
	LevelDebug LogLevel = iota
	// LevelInfo for general informational messages.
	LevelInfo
	// LevelWarn for warning conditions.
	LevelWarn
	// LevelError for error conditions.
	LevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// LogEntry is a single structured diagnostic event.
type LogEntry struct {
	Level    LogLevel
	Category string // "reactor", "task", "timer", "shutdown"
	Message  string
	Err      error
	Fields   map[string]any
}

// Logger is the structured logging interface the runtime writes
// diagnostics through.
type Logger interface {
	Log(entry LogEntry)
	IsEnabled(level LogLevel) bool
}

// noOpLogger discards everything; it is the zero-cost fallback.
type noOpLogger struct{}

func (noOpLogger) Log(LogEntry) {}

func (noOpLogger) IsEnabled(LogLevel) bool { return false }

// stumpyLogger is the built-in default, backed by logiface+stumpy
// rather than a hand-rolled writer.
type stumpyLogger struct {
	level atomic.Int32
	mu    sync.Mutex
	log   *logiface.Logger[*stumpy.Event]
}

// newStumpyLogger builds the package's default Logger, writing
// newline-delimited JSON via logiface's stumpy backend.
func newStumpyLogger(level LogLevel) *stumpyLogger {
	l := &stumpyLogger{
		log: logiface.New[*stumpy.Event](
			stumpy.WithStumpy(),
		),
	}
	l.level.Store(int32(level))
	return l
}

func toLogifaceLevel(l LogLevel) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func (l *stumpyLogger) IsEnabled(level LogLevel) bool {
	return int32(level) >= l.level.Load()
}

func (l *stumpyLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.log.Build(toLogifaceLevel(entry.Level))
	if entry.Category != "" {
		b = b.Str("category", entry.Category)
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	for k, v := range entry.Fields {
		b = b.Str(k, fmt.Sprint(v))
	}
	b.Log(entry.Message)
}

// defaultLogger returns the package's built-in default Logger, at the
// info level.
func defaultLogger() Logger {
	return newStumpyLogger(LevelInfo)
}
