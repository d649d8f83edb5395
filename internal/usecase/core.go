package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"room-reservation/internal/cache"
	"room-reservation/internal/data/entity"
	"room-reservation/internal/data/repository"
	"room-reservation/internal/notify"
	"room-reservation/pkg/dateutil"
	"room-reservation/pkg/utils"

	"go.uber.org/zap"
)

const notifyTimeout = 5 * time.Second

// core is the state every calendar service works against. Each service holds its own
// copy with a service-tagged logger.
type core struct {
	repo       *repository.Repository
	clock      dateutil.Clock
	loc        *time.Location
	policy     utils.BookingConfig
	cache      cache.CalendarCache
	notifier   notify.Dispatcher
	reconciler Reconciler
	overlap    OverlapDetector
	log        *zap.Logger
}

func (c core) named(log *zap.Logger, service string) core {
	c.log = log.With(zap.String("service", service))
	return c
}

func (c *core) now() time.Time {
	return c.clock.Now()
}

func (c *core) today() time.Time {
	return dateutil.Today(c.now(), c.loc)
}

func (c *core) reconcile(ctx context.Context) error {
	if _, err := c.reconciler.Reconcile(ctx); err != nil {
		return fmt.Errorf("reconcile pending bookings: %w", err)
	}
	return nil
}

// invalidate drops cached calendars. Failures only cost freshness until the TTL expires.
func (c *core) invalidate(ctx context.Context, roomIDs ...int64) {
	if err := c.cache.Invalidate(ctx, roomIDs...); err != nil {
		c.log.Warn("Failed to invalidate calendar cache", zap.Error(err), zap.Int64s("room_ids", roomIDs))
	}
}

// slotSpec is a validated room/date/time request.
type slotSpec struct {
	roomID int64
	date   time.Time
	start  dateutil.TimeOfDay
	end    dateutil.TimeOfDay
}

func (s slotSpec) rangeString() string {
	return dateutil.FormatRange(s.start, s.end)
}

func (c *core) parseSlot(roomID int64, date, start, end string) (slotSpec, error) {
	d, err := dateutil.ParseDate(date)
	if err != nil {
		return slotSpec{}, invalidField("slot_date", "slot_date must be a date in YYYY-MM-DD format")
	}
	from, err := dateutil.ParseTimeOfDay(start)
	if err != nil {
		return slotSpec{}, invalidField("start_time", "start_time must be a time in HH:MM format")
	}
	to, err := dateutil.ParseTimeOfDay(end)
	if err != nil {
		return slotSpec{}, invalidField("end_time", "end_time must be a time in HH:MM format")
	}
	if to <= from {
		return slotSpec{}, invalidField("end_time", "end_time must be after start_time")
	}

	step := c.policy.SlotMinutes
	if !from.Aligned(step) {
		return slotSpec{}, invalidField("start_time", fmt.Sprintf("start_time must fall on a %d-minute boundary", step))
	}
	if !to.Aligned(step) {
		return slotSpec{}, invalidField("end_time", fmt.Sprintf("end_time must fall on a %d-minute boundary", step))
	}

	return slotSpec{roomID: roomID, date: d, start: from, end: to}, nil
}

// ensureFuture rejects a slot whose start instant is not strictly after now.
func (c *core) ensureFuture(s slotSpec, msg string) error {
	if !dateutil.Combine(s.date, s.start, c.loc).After(c.now()) {
		return &PastDateError{Message: msg}
	}
	return nil
}

// findRoom loads a room the actor may see. Hidden rooms only exist for admins.
func (c *core) findRoom(ctx context.Context, actor Actor, roomID int64) (*entity.Room, error) {
	room, err := c.repo.Room.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil || (!room.IsVisible && !actor.IsAdmin()) {
		return nil, &NotFoundError{Resource: "room", ID: roomID}
	}
	return room, nil
}

// slotTaken translates the store's last-resort overlap guard into a conflict.
func slotTaken(err error, s slotSpec) error {
	if errors.Is(err, repository.ErrSlotTaken) {
		return &ConflictError{
			Message: fmt.Sprintf("Time slot %s on %s was taken by a concurrent request",
				s.rangeString(), dateutil.FormatDate(s.date)),
			Range: s.rangeString(),
		}
	}
	return err
}

// notify delivers events after the triggering operation committed. Errors are logged.
func (c *core) notify(ctx context.Context, events []notify.Event) {
	if len(events) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	for _, event := range events {
		if err := c.notifier.Dispatch(ctx, event); err != nil {
			c.log.Warn("Failed to dispatch notification",
				zap.Error(err),
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)),
				zap.Int64("booking_id", event.BookingID),
			)
		}
	}
}

// decisionEvents builds one event per requester from the earliest of their bookings.
// bookings must be ordered by slot date and start time.
func (c *core) decisionEvents(ctx context.Context, typ notify.EventType, bookings []*entity.BookingSlot, patternID *int64, skipUser int64) []notify.Event {
	type group struct {
		first *entity.BookingSlot
		count int
	}

	var order []int64
	groups := make(map[int64]*group)
	for _, bs := range bookings {
		uid := bs.Booking.UserID
		if uid == skipUser {
			continue
		}
		g, ok := groups[uid]
		if !ok {
			g = &group{first: bs}
			groups[uid] = g
			order = append(order, uid)
		}
		g.count++
	}

	rooms := make(map[int64]string)
	events := make([]notify.Event, 0, len(order))
	for _, uid := range order {
		g := groups[uid]
		bs := g.first

		event := notify.NewEvent(typ, c.now())
		event.BookingID = bs.Booking.ID
		event.PatternID = patternID
		if event.PatternID == nil {
			event.PatternID = bs.Booking.PatternID
		}
		event.Occurrences = g.count
		event.UserID = uid
		event.RoomID = bs.Timeslot.RoomID
		event.SlotDate = dateutil.FormatDate(bs.Timeslot.SlotDate)
		event.StartTime = bs.Timeslot.StartTime.String()
		event.EndTime = bs.Timeslot.EndTime.String()
		event.Reason = bs.Booking.Reason

		if user, err := c.repo.User.FindByID(ctx, uid); err != nil {
			c.log.Warn("Failed to load notification recipient", zap.Error(err), zap.Int64("user_id", uid))
		} else if user != nil {
			event.UserName = user.Name
			event.UserEmail = user.Email
		}

		name, ok := rooms[event.RoomID]
		if !ok {
			if room, err := c.repo.Room.FindByID(ctx, event.RoomID); err != nil {
				c.log.Warn("Failed to load notification room", zap.Error(err), zap.Int64("room_id", event.RoomID))
			} else if room != nil {
				name = room.Name
			}
			rooms[event.RoomID] = name
		}
		event.RoomName = name

		events = append(events, event)
	}
	return events
}

func roomsOf(bookings []*entity.BookingSlot) []int64 {
	seen := make(map[int64]struct{})
	var rooms []int64
	for _, bs := range bookings {
		if _, ok := seen[bs.Timeslot.RoomID]; ok {
			continue
		}
		seen[bs.Timeslot.RoomID] = struct{}{}
		rooms = append(rooms, bs.Timeslot.RoomID)
	}
	return rooms
}
