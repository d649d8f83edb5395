package usecase

import (
	"context"
	"errors"

	"room-reservation/internal/cache"
	"room-reservation/internal/dto/response"

	"go.uber.org/zap"
)

type CalendarService interface {
	RoomCalendar(ctx context.Context, actor Actor, roomID int64) ([]response.CalendarSlot, error)
	UserBookings(ctx context.Context, actor Actor, userID int64) ([]response.UserBooking, error)
	PendingRequests(ctx context.Context, actor Actor) ([]response.PendingRequest, error)
}

type calendarService struct {
	core
}

func NewCalendarService(c core, log *zap.Logger) CalendarService {
	return &calendarService{core: c.named(log, "calendar")}
}

func (s *calendarService) RoomCalendar(ctx context.Context, actor Actor, roomID int64) ([]response.CalendarSlot, error) {
	if roomID <= 0 {
		return nil, invalidField("room_id", "room_id must be a positive integer")
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}
	if _, err := s.findRoom(ctx, actor, roomID); err != nil {
		return nil, err
	}

	var slots []response.CalendarSlot
	gen, err := s.cache.Get(ctx, roomID, &slots)
	if err == nil {
		return slots, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("Calendar cache unavailable", zap.Error(err), zap.Int64("room_id", roomID))
	}

	entries, err := s.repo.Calendar.FindRoomCalendar(ctx, roomID)
	if err != nil {
		return nil, err
	}

	slots = make([]response.CalendarSlot, 0, len(entries))
	for _, e := range entries {
		slots = append(slots, toCalendarSlot(e))
	}

	if err := s.cache.Set(ctx, roomID, gen, slots); err != nil {
		s.log.Warn("Failed to cache calendar", zap.Error(err), zap.Int64("room_id", roomID))
	}
	return slots, nil
}

func (s *calendarService) UserBookings(ctx context.Context, actor Actor, userID int64) ([]response.UserBooking, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, invalidField("user_id", "user_id must be a positive integer")
	}
	if userID != actor.UserID && !actor.IsAdmin() {
		return nil, &ForbiddenError{Message: "You can only view your own bookings"}
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	entries, err := s.repo.Calendar.FindUserBookings(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]response.UserBooking, 0, len(entries))
	for _, e := range entries {
		out = append(out, toUserBooking(e))
	}
	return out, nil
}

func (s *calendarService) PendingRequests(ctx context.Context, actor Actor) ([]response.PendingRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	entries, err := s.repo.Calendar.FindPendingRequests(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]response.PendingRequest, 0, len(entries))
	for _, e := range entries {
		out = append(out, toPendingRequest(e))
	}
	return out, nil
}
