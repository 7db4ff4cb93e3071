package migrate

import (
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func init() {
	// goose prints to stderr through the standard log package until told otherwise
	goose.SetLogger(goose.NopLogger())
}

type gooseLogger struct{ log *zap.SugaredLogger }

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Debugf(strings.TrimRight(format, "\n"), v...)
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Fatalf(strings.TrimRight(format, "\n"), v...)
}

// Logger adapts log for goose; progress lines are emitted at debug level.
func Logger(log *zap.Logger) goose.Logger {
	return gooseLogger{log: log.Named("goose").Sugar()}
}

// UseLogger routes goose output, for both the remote schema and the local
// cache, through log.
func UseLogger(log *zap.Logger) {
	goose.SetLogger(Logger(log))
}
