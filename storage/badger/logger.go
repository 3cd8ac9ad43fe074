package badger

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/tessellate-network/consensuscore/common/logging"
)

// badgerLogger adapts an hclog.Logger (itself backed by the shared logging
// module via logging.NewHCLogAdapter) to badger's own four-method Logger
// interface (Errorf/Warningf/Infof/Debugf), so badger's internal diagnostics
// flow through the same backend as every other component's logs.
type badgerLogger struct {
	hc hclog.Logger
}

func newBadgerLogger(module string) *badgerLogger {
	return &badgerLogger{hc: logging.NewHCLogAdapter(module)}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.hc.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.hc.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.hc.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.hc.Debug(fmt.Sprintf(format, args...))
}
