// Package scheduler runs the periodic reconcile sweep, so pending bookings whose start
// has passed get confirmed even when no request touches the calendar.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"room-reservation/internal/usecase"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = 30 * time.Second

type Scheduler struct {
	cron       *cron.Cron
	reconciler usecase.Reconciler
	log        *zap.Logger
}

// New registers the sweep on spec, a five-field cron expression or a descriptor such as
// "@every 1m". Overlapping runs are skipped.
func New(spec string, reconciler usecase.Reconciler, log *zap.Logger) (*Scheduler, error) {
	log = log.With(zap.String("component", "scheduler"))
	clog := cronLogger{log: log.Sugar()}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		reconciler: reconciler,
		log:        log,
	}

	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("schedule reconcile %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Reconcile sweep scheduled")
}

// Stop halts the schedule and waits for a running sweep, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	n, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("Reconcile sweep confirmed bookings", zap.Int("count", n))
	}
	return n, nil
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("Reconcile sweep failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
