package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/dto/request"
	"room-reservation/internal/testfixtures"
	"room-reservation/pkg/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	store    *testfixtures.Store
	clock    *testfixtures.Clock
	cache    *testfixtures.Cache
	notifier *testfixtures.Dispatcher
	svc      *Service

	admin Actor
	alice Actor
	bob   Actor
	guest Actor

	room   entity.Room
	hidden entity.Room
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessIn(t, time.UTC)
}

func newHarnessIn(t *testing.T, loc *time.Location) *harness {
	t.Helper()

	h := &harness{
		store:    testfixtures.NewStore(),
		clock:    testfixtures.NewClock(time.Time{}),
		cache:    testfixtures.NewCache(),
		notifier: &testfixtures.Dispatcher{},
	}

	admin := h.store.AddUser("admin", entity.RoleAdmin)
	alice := h.store.AddUser("alice", entity.RoleUser)
	bob := h.store.AddUser("bob", entity.RoleUser)
	h.admin = Actor{UserID: admin.ID, Role: entity.RoleAdmin}
	h.alice = Actor{UserID: alice.ID, Role: entity.RoleUser}
	h.bob = Actor{UserID: bob.ID, Role: entity.RoleUser}
	h.guest = Actor{Role: entity.RoleGuest}

	h.room = h.store.AddRoom("Boardroom", true)
	h.hidden = h.store.AddRoom("Server room", false)

	config := &utils.Config{Booking: utils.BookingConfig{MaxRecurrenceYears: 2, SlotMinutes: 30}}
	h.svc = NewService(h.store.Repository(), config, Deps{
		Clock:    h.clock,
		Location: loc,
		Cache:    h.cache,
		Notifier: h.notifier,
	}, zap.NewNop())

	return h
}

func (h *harness) book(t *testing.T, actor Actor, date, start, end string) (*ConflictError, int64) {
	t.Helper()
	res, err := h.svc.Booking.CreateBooking(context.Background(), actor, &request.CreateBookingRequest{
		RoomID:    h.room.ID,
		SlotDate:  date,
		StartTime: start,
		EndTime:   end,
		Reason:    "Planning",
	})
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, 0
	}
	require.NoError(t, err)
	require.NotNil(t, res.BookingCreated)
	return nil, res.BookingID
}

func (h *harness) series(t *testing.T, actor Actor, req request.CreateBookingRequest) int64 {
	t.Helper()
	req.IsRecurring = true
	if req.RoomID == 0 {
		req.RoomID = h.room.ID
	}
	if req.Reason == "" {
		req.Reason = "Standup"
	}
	res, err := h.svc.Booking.CreateBooking(context.Background(), actor, &req)
	require.NoError(t, err)
	require.NotNil(t, res.SeriesCreated)
	return res.PatternID
}

func ptr[T any](v T) *T { return &v }
