package workqueue

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j *funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }
func (j *funcJob) Description() string { return j.name }

func TestOrdering(t *testing.T) {
	q := New(nil, nil)
	var order []string
	record := func(name string) *funcJob {
		return &funcJob{name: name, fn: func(context.Context) error {
			order = append(order, name)
			return nil
		}}
	}

	q.Append(record("a"))
	q.Append(record("b"))
	q.Prepend(record("c"))
	require.Equal(t, 3, q.Len())

	require.NoError(t, q.Run(context.Background()))
	assert.Equal(t, []string{"c", "a", "b"}, order)
	assert.Equal(t, 0, q.Len())
}

func TestContinuationRunsNext(t *testing.T) {
	q := New(nil, nil)
	var order []string

	remaining := 3
	var chunk *funcJob
	chunk = &funcJob{name: "chunk", fn: func(context.Context) error {
		order = append(order, "chunk")
		remaining--
		if remaining > 0 {
			q.Prepend(chunk)
		}
		return nil
	}}
	q.Append(chunk)
	q.Append(&funcJob{name: "other", fn: func(context.Context) error {
		order = append(order, "other")
		return nil
	}})

	require.NoError(t, q.Run(context.Background()))
	assert.Equal(t, []string{"chunk", "chunk", "chunk", "other"}, order)
}

func TestFailedJobDoesNotStopQueue(t *testing.T) {
	q := New(nil, nil)
	ran := false

	q.Append(&funcJob{name: "bad", fn: func(context.Context) error { return errors.New("boom") }})
	q.Append(&funcJob{name: "good", fn: func(context.Context) error {
		ran = true
		return nil
	}})

	require.NoError(t, q.Run(context.Background()))
	assert.True(t, ran)
}

func TestRunCancelled(t *testing.T) {
	q := New(nil, nil)
	q.Append(&funcJob{name: "never", fn: func(context.Context) error {
		t.Fatal("job should not run")
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, q.Run(ctx), context.Canceled)
	assert.Equal(t, 1, q.Len())
}

func TestRunOneEmpty(t *testing.T) {
	assert.False(t, New(nil, nil).RunOne(context.Background()))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	q := New(nil, m)

	q.Append(&funcJob{name: "ok", fn: func(context.Context) error { return nil }})
	q.Append(&funcJob{name: "bad", fn: func(context.Context) error { return errors.New("boom") }})
	q.Append(&funcJob{name: "later", fn: func(context.Context) error { return nil }})
	require.Equal(t, 3.0, testutil.ToFloat64(m.pending))

	require.True(t, q.RunOne(context.Background()))
	require.True(t, q.RunOne(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.executed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pending))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
