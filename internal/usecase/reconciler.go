package usecase

import (
	"context"
	"time"

	"room-reservation/internal/cache"
	"room-reservation/internal/data/repository"
	"room-reservation/pkg/dateutil"

	"go.uber.org/zap"
)

// Reconciler confirms pending bookings whose start has passed: a request nobody rejected
// in time is taken as having happened. Every calendar entry point runs it first and the
// scheduler runs it periodically.
type Reconciler interface {
	// Reconcile returns the number of bookings it confirmed.
	Reconcile(ctx context.Context) (int, error)
}

type reconciler struct {
	repo  *repository.Repository
	clock dateutil.Clock
	loc   *time.Location
	cache cache.CalendarCache
	log   *zap.Logger
}

func NewReconciler(repo *repository.Repository, clock dateutil.Clock, loc *time.Location, cache cache.CalendarCache, log *zap.Logger) Reconciler {
	return &reconciler{
		repo:  repo,
		clock: clock,
		loc:   loc,
		cache: cache,
		log:   log.With(zap.String("service", "reconciler")),
	}
}

func (r *reconciler) Reconcile(ctx context.Context) (int, error) {
	now := r.clock.Now()
	today := dateutil.Today(now, r.loc)
	clock := dateutil.WallClock(now, r.loc)

	rooms, err := r.repo.Booking.ConfirmElapsed(ctx, today, clock)
	if err != nil {
		return 0, err
	}
	if len(rooms) == 0 {
		return 0, nil
	}

	r.log.Info("Auto-confirmed elapsed pending bookings",
		zap.Int("count", len(rooms)),
		zap.String("as_of", dateutil.FormatDate(today)+" "+clock),
	)

	if err := r.cache.Invalidate(ctx, rooms...); err != nil {
		r.log.Warn("Failed to invalidate calendar cache", zap.Error(err), zap.Int64s("room_ids", rooms))
	}
	return len(rooms), nil
}
