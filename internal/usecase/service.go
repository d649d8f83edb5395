package usecase

import (
	"time"

	"room-reservation/internal/cache"
	"room-reservation/internal/data/repository"
	"room-reservation/internal/notify"
	"room-reservation/pkg/dateutil"
	"room-reservation/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking    BookingService
	Approval   ApprovalService
	Block      BlockService
	Calendar   CalendarService
	Room       RoomService
	Reconciler Reconciler
}

// Deps are the collaborators shared by every service. Nil members fall back to the
// system clock, UTC, no caching and log-only notifications.
type Deps struct {
	Clock    dateutil.Clock
	Location *time.Location
	Cache    cache.CalendarCache
	Notifier notify.Dispatcher
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	if deps.Clock == nil {
		deps.Clock = dateutil.SystemClock{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogDispatcher(log)
	}

	reconciler := NewReconciler(repo, deps.Clock, deps.Location, deps.Cache, log)
	c := core{
		repo:       repo,
		clock:      deps.Clock,
		loc:        deps.Location,
		policy:     config.Booking,
		cache:      deps.Cache,
		notifier:   deps.Notifier,
		reconciler: reconciler,
		overlap:    NewOverlapDetector(),
	}

	return &Service{
		Booking:    NewBookingService(c, log),
		Approval:   NewApprovalService(c, log),
		Block:      NewBlockService(c, log),
		Calendar:   NewCalendarService(c, log),
		Room:       NewRoomService(c, log),
		Reconciler: reconciler,
	}
}
