package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingReconciler struct {
	calls atomic.Int32
	n     int
	err   error
}

func (r *countingReconciler) Reconcile(context.Context) (int, error) {
	r.calls.Add(1)
	return r.n, r.err
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New("every minute", &countingReconciler{}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := &countingReconciler{n: 3}

	s, err := New("@every 1h", r, zap.New(core))
	require.NoError(t, err)

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, logs.FilterMessage("Reconcile sweep confirmed bookings").Len())

	r.err = errors.New("db down")
	_, err = s.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestSweep_LogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := &countingReconciler{err: errors.New("db down")}

	s, err := New("@every 1h", r, zap.New(core))
	require.NoError(t, err)

	s.sweep()
	assert.Equal(t, 1, logs.FilterMessage("Reconcile sweep failed").Len())
}

func TestStartStop(t *testing.T) {
	r := &countingReconciler{}
	s, err := New("@every 1s", r, zap.NewNop())
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
