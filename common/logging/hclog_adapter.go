package logging

import (
	"io"
	"log"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter routes a hashicorp/go-hclog consumer into our own backend.
// storage/badger bridges badger's four-method Logger interface onto it, so
// a single log stream carries both the Core's own events and badger's.
type HCLogAdapter struct {
	logger *Logger
	name   string
}

// NewHCLogAdapter wraps module's Logger as an hclog.Logger.
func NewHCLogAdapter(module string) hclog.Logger {
	return &HCLogAdapter{logger: GetLogger(module), name: module}
}

func (a *HCLogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		a.logger.Debug(msg, args...)
	case hclog.Warn:
		a.logger.Warn(msg, args...)
	case hclog.Error:
		a.logger.Error(msg, args...)
	default:
		a.logger.Info(msg, args...)
	}
}

func (a *HCLogAdapter) Trace(msg string, args ...interface{}) { a.logger.Debug(msg, args...) }
func (a *HCLogAdapter) Debug(msg string, args ...interface{}) { a.logger.Debug(msg, args...) }
func (a *HCLogAdapter) Info(msg string, args ...interface{})  { a.logger.Info(msg, args...) }
func (a *HCLogAdapter) Warn(msg string, args ...interface{})  { a.logger.Warn(msg, args...) }
func (a *HCLogAdapter) Error(msg string, args ...interface{}) { a.logger.Error(msg, args...) }

func (a *HCLogAdapter) IsTrace() bool { return true }
func (a *HCLogAdapter) IsDebug() bool { return true }
func (a *HCLogAdapter) IsInfo() bool  { return true }
func (a *HCLogAdapter) IsWarn() bool  { return true }
func (a *HCLogAdapter) IsError() bool { return true }

func (a *HCLogAdapter) ImpliedArgs() []interface{} { return nil }
func (a *HCLogAdapter) With(args ...interface{}) hclog.Logger {
	return &HCLogAdapter{logger: a.logger.With(args...), name: a.name}
}
func (a *HCLogAdapter) Name() string { return a.name }
func (a *HCLogAdapter) Named(name string) hclog.Logger {
	return &HCLogAdapter{logger: a.logger.With("subsystem", name), name: a.name + "." + name}
}
func (a *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return NewHCLogAdapter(name).(*HCLogAdapter)
}
func (a *HCLogAdapter) SetLevel(hclog.Level)           {}
func (a *HCLogAdapter) GetLevel() hclog.Level          { return hclog.Info }
func (a *HCLogAdapter) StandardLogger(_ *hclog.StandardLoggerOpts) *log.Logger {
	return log.New(io.Discard, "", 0)
}
func (a *HCLogAdapter) StandardWriter(_ *hclog.StandardLoggerOpts) io.Writer {
	return io.Discard
}
