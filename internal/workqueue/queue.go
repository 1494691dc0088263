// Package workqueue runs chunked jobs one at a time so that long running
// work can yield between chunks.
package workqueue

import (
	"context"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Job is a unit of work. A job that has more to do enqueues its continuation.
type Job interface {
	Execute(ctx context.Context) error
	Description() string
}

// Queue is a double ended queue of jobs.
type Queue struct {
	mu      sync.Mutex
	jobs    []Job
	logger  log.Logger
	metrics *Metrics
}

// New returns an empty queue. Nil metrics are replaced by unregistered ones.
func New(logger log.Logger, metrics *Metrics) *Queue {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Queue{logger: logger, metrics: metrics}
}

// Append schedules job after everything already queued.
func (q *Queue) Append(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	q.metrics.pending.Inc()
}

// Prepend schedules job to run next.
func (q *Queue) Prepend(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append([]Job{job}, q.jobs...)
	q.metrics.pending.Inc()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *Queue) pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, false
	}
	job := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	q.metrics.pending.Dec()
	return job, true
}

// RunOne executes the next job. It reports false when the queue was empty.
func (q *Queue) RunOne(ctx context.Context) bool {
	job, ok := q.pop()
	if !ok {
		return false
	}
	q.metrics.executed.Inc()
	if err := job.Execute(ctx); err != nil {
		q.metrics.failed.Inc()
		level.Error(q.logger).Log("msg", "job failed", "job", job.Description(), "err", err)
	}
	return true
}

// Run drains the queue, including jobs enqueued while running. It stops
// early when ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !q.RunOne(ctx) {
			return nil
		}
	}
}
