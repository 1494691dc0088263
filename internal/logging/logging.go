// Package logging builds the go-kit loggers used by the binaries.
package logging

import (
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// New returns a logfmt logger writing to w that drops records below lvl.
func New(w io.Writer, lvl string) (log.Logger, error) {
	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "info", "":
		opt = level.AllowInfo()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, errors.Errorf("unknown log level %q", lvl)
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, opt)
	return log.With(logger, "ts", log.DefaultTimestampUTC), nil
}

// Diagnostics forwards the notes of the v8 log engine to a logger at debug
// level.
type Diagnostics struct {
	logger log.Logger
}

func NewDiagnostics(logger log.Logger) *Diagnostics {
	return &Diagnostics{logger: log.With(logger, "component", "v8log")}
}

func (d *Diagnostics) LogText(text string) {
	level.Debug(d.logger).Log("msg", text)
}
