// Package logging implements the structured logging backend shared by every
// package in this module.
//
// A single process-wide backend is initialized once (normally from
// cmd/consensusd, driven by config flags) and every package obtains its own
// named *Logger from it via GetLogger. GetLogger may be called before
// Initialize runs, e.g. from a package-level var; the resulting logger is
// swapped transparently once the backend comes up.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

var backend = logBackend{
	baseLogger: log.NewNopLogger(),
	level:      LevelInfo,
}

// Format is a logging output format.
type Format uint

const (
	// FmtLogfmt is the "logfmt" logging format.
	FmtLogfmt Format = iota
	// FmtJSON is the JSON logging format.
	FmtJSON
)

// ParseFormat returns the Format corresponding to the provided string.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(s) {
	case "LOGFMT":
		return FmtLogfmt, nil
	case "JSON":
		return FmtJSON, nil
	default:
		return FmtLogfmt, fmt.Errorf("logging: invalid log format: %q", s)
	}
}

// Level is a log level.
type Level uint

const (
	// LevelDebug is the log level for debug messages.
	LevelDebug Level = iota
	// LevelInfo is the log level for informative messages.
	LevelInfo
	// LevelWarn is the log level for warning messages.
	LevelWarn
	// LevelError is the log level for error messages.
	LevelError
)

func (l Level) toOption() level.Option {
	switch l {
	case LevelDebug:
		return level.AllowDebug()
	case LevelInfo:
		return level.AllowInfo()
	case LevelWarn:
		return level.AllowWarn()
	case LevelError:
		return level.AllowError()
	default:
		panic("logging: unsupported log level")
	}
}

// ParseLevel returns the Level corresponding to the provided string.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("logging: invalid log level: %q", s)
	}
}

// Logger is a named, leveled logger instance.
type Logger struct {
	logger log.Logger
}

// Debug logs the message and key/value pairs at the Debug level.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	if backend.level > LevelDebug {
		return
	}
	_ = level.Debug(l.logger).Log(withMsg(msg, keyvals)...)
}

// Info logs the message and key/value pairs at the Info level.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	if backend.level > LevelInfo {
		return
	}
	_ = level.Info(l.logger).Log(withMsg(msg, keyvals)...)
}

// Warn logs the message and key/value pairs at the Warn level.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	if backend.level > LevelWarn {
		return
	}
	_ = level.Warn(l.logger).Log(withMsg(msg, keyvals)...)
}

// Error logs the message and key/value pairs at the Error level.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	if backend.level > LevelError {
		return
	}
	_ = level.Error(l.logger).Log(withMsg(msg, keyvals)...)
}

func withMsg(msg string, keyvals []interface{}) []interface{} {
	return append([]interface{}{"msg", msg}, keyvals...)
}

// With returns a clone of the logger with the provided key/value pairs
// attached to every subsequent call.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{logger: log.With(l.logger, keyvals...)}
}

// GetLogger creates a new logger instance for the given module name.
func GetLogger(module string) *Logger {
	return backend.getLogger(module)
}

// Initialize wires the logging backend to write to w at the given level and
// format. If w is nil, all output is discarded. Initialize may be called
// exactly once; subsequent calls return an error.
func Initialize(w io.Writer, lvl Level, format Format) error {
	backend.Lock()
	defer backend.Unlock()

	if backend.initialized {
		return fmt.Errorf("logging: already initialized")
	}

	var logger log.Logger = backend.baseLogger
	if w != nil {
		w = log.NewSyncWriter(w)
		switch format {
		case FmtLogfmt:
			logger = log.NewLogfmtLogger(w)
		case FmtJSON:
			logger = log.NewJSONLogger(w)
		default:
			return fmt.Errorf("logging: unsupported log format: %v", format)
		}
	}

	logger = level.NewFilter(logger, lvl.toOption())
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	backend.baseLogger = logger
	backend.level = lvl
	backend.initialized = true

	for _, l := range backend.earlyLoggers {
		l.Swap(backend.baseLogger)
	}
	backend.earlyLoggers = nil

	return nil
}

type logBackend struct {
	sync.Mutex

	baseLogger   log.Logger
	earlyLoggers []*log.SwapLogger
	level        Level

	initialized bool
}

func (b *logBackend) getLogger(module string) *Logger {
	b.Lock()
	defer b.Unlock()

	logger := b.baseLogger
	if !b.initialized {
		logger = &log.SwapLogger{}
	}

	// The caller is log.DefaultCaller with an extra level of stack
	// unwinding due to this module's leveling wrapper.
	l := &Logger{
		logger: log.WithPrefix(logger, "module", module, "caller", log.Caller(4)),
	}

	if !b.initialized {
		sLog := logger.(*log.SwapLogger)
		backend.earlyLoggers = append(backend.earlyLoggers, sLog)
	}

	return l
}
