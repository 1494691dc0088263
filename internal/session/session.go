// Package session loads v8 log files into analysed profiles on behalf of
// the binaries.
package session

import (
	"context"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"

	"v8prof-mcp/internal/config"
	"v8prof-mcp/internal/logfile"
	"v8prof-mcp/internal/logging"
	"v8prof-mcp/internal/v8log"
	"v8prof-mcp/internal/workqueue"
)

var (
	sequence atomic.Int64

	// QueueMetrics are shared by the queues of all chunked sessions.
	QueueMetrics = workqueue.NewMetrics(prometheus.DefaultRegisterer)
)

// Session is a processed v8 log.
type Session struct {
	Path    string
	Engine  *v8log.Engine
	Profile *v8log.Profile
	Record  *v8log.Record
	Lines   int
	Size    int
}

// Load reads the log at path, which may be gzipped or zipped, and
// processes it.
func Load(ctx context.Context, path string, cfg config.Config, logger log.Logger) (*Session, error) {
	payload, err := logfile.Read(path)
	if err != nil {
		return nil, err
	}
	s, err := Process(ctx, payload, cfg, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "processing %s", path)
	}
	s.Path = path
	return s, nil
}

// Process folds payload into a fresh profile. In chunked mode the payload is
// drained through a work queue slice by slice.
func Process(ctx context.Context, payload string, cfg config.Config, logger log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	opts := v8log.Options{
		SliceBudget:   cfg.SliceBudget,
		CheckInterval: cfg.CheckInterval,
		Diagnostics:   logging.NewDiagnostics(logger),
	}
	var queue *workqueue.Queue
	if cfg.Chunking {
		queue = workqueue.New(logger, QueueMetrics)
		opts.Scheduler = queue
	}

	s := &Session{
		Engine:  v8log.NewEngine(opts),
		Profile: v8log.NewProfile(),
		Record:  &v8log.Record{Seq: int(sequence.Inc())},
		Lines:   countLines(payload),
		Size:    len(payload),
	}
	if err := s.Engine.ParseRawEvent(ctx, payload, s.Record, s.Profile); err != nil {
		return nil, err
	}
	if queue != nil {
		if err := queue.Run(ctx); err != nil {
			return nil, err
		}
		if err := s.Engine.Err(); err != nil {
			return nil, err
		}
	}

	if d := s.Engine.Decompressor(); d != nil {
		level.Debug(logger).Log("msg", "log was compressed", "window", d.WindowSize())
	}
	level.Info(logger).Log(
		"msg", "v8 log processed",
		"seq", s.Record.Seq,
		"symbols", s.Engine.Symbols().Len(),
		"has_profile", s.Record.HasJavaScriptProfile(),
	)
	return s, nil
}

// countLines ignores the empty line after a trailing newline.
func countLines(payload string) int {
	if payload == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(payload, "\n"), "\n") + 1
}
