package usecase

import (
	"context"
	"testing"

	"room-reservation/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCalendar(t *testing.T) {
	h := newHarness(t)
	h.book(t, h.alice, "2025-11-18", "14:00", "15:00")
	h.store.AddBlock(h.room.ID, "2025-11-17", "12:00", "13:00", ptr("Cleaning"))

	slots, err := h.svc.Calendar.RoomCalendar(context.Background(), h.guest, h.room.ID)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, "2025-11-17", slots[0].SlotDate)
	assert.Equal(t, "blocked", slots[0].Status)
	assert.Nil(t, slots[0].BookingID)

	assert.Equal(t, "2025-11-18", slots[1].SlotDate)
	assert.Equal(t, "Boardroom", slots[1].RoomName)
	require.NotNil(t, slots[1].BookingStatus)
	assert.Equal(t, "pending", *slots[1].BookingStatus)
	require.NotNil(t, slots[1].UserName)
	assert.Equal(t, "alice", *slots[1].UserName)
}

func TestRoomCalendar_ServesFromCacheUntilInvalidated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Calendar.RoomCalendar(ctx, h.guest, h.room.ID)
	require.NoError(t, err)
	assert.True(t, h.cache.Has(h.room.ID))

	_, err = h.svc.Calendar.RoomCalendar(ctx, h.guest, h.room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, h.store.Calls("calendar.room"))

	h.book(t, h.alice, "2025-11-18", "14:00", "15:00")
	assert.False(t, h.cache.Has(h.room.ID))

	slots, err := h.svc.Calendar.RoomCalendar(ctx, h.guest, h.room.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
	assert.Equal(t, 2, h.store.Calls("calendar.room"))
}

func TestRoomCalendar_FillRacingAWriteIsNotCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.cache.BeforeSet = func(int64) {
		h.cache.BeforeSet = nil
		h.book(t, h.alice, "2025-11-18", "14:00", "15:00")
	}

	slots, err := h.svc.Calendar.RoomCalendar(ctx, h.guest, h.room.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.False(t, h.cache.Has(h.room.ID))

	slots, err = h.svc.Calendar.RoomCalendar(ctx, h.guest, h.room.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
	assert.True(t, h.cache.Has(h.room.ID))
}

func TestRoomCalendar_EmptyAndMissing(t *testing.T) {
	h := newHarness(t)

	slots, err := h.svc.Calendar.RoomCalendar(context.Background(), h.guest, h.room.ID)
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)

	_, err = h.svc.Calendar.RoomCalendar(context.Background(), h.alice, h.hidden.ID)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = h.svc.Calendar.RoomCalendar(context.Background(), h.admin, h.hidden.ID)
	assert.NoError(t, err)

	_, err = h.svc.Calendar.RoomCalendar(context.Background(), h.guest, 0)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUserBookings(t *testing.T) {
	h := newHarness(t)
	h.book(t, h.alice, "2025-11-19", "14:00", "15:00")
	h.series(t, h.alice, dailyWeek())
	h.book(t, h.bob, "2025-11-18", "14:00", "15:00")

	own, err := h.svc.Calendar.UserBookings(context.Background(), h.alice, h.alice.UserID)
	require.NoError(t, err)
	require.Len(t, own, 6)
	assert.Equal(t, "2025-11-17", own[0].SlotDate)
	require.NotNil(t, own[0].Frequency)
	assert.Equal(t, "daily", *own[0].Frequency)
	require.NotNil(t, own[0].UntilDate)
	assert.Equal(t, "2025-11-21", *own[0].UntilDate)

	var single int
	for _, b := range own {
		if !b.IsRecurring {
			single++
			assert.Nil(t, b.Frequency)
			assert.Equal(t, "Planning", b.Reason)
		}
	}
	assert.Equal(t, 1, single)

	_, err = h.svc.Calendar.UserBookings(context.Background(), h.bob, h.alice.UserID)
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	_, err = h.svc.Calendar.UserBookings(context.Background(), h.guest, h.alice.UserID)
	assert.ErrorAs(t, err, &forbidden)

	other, err := h.svc.Calendar.UserBookings(context.Background(), h.admin, h.bob.UserID)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	none, err := h.svc.Calendar.UserBookings(context.Background(), h.admin, h.admin.UserID)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPendingRequests(t *testing.T) {
	h := newHarness(t)
	h.book(t, h.bob, "2025-11-20", "14:00", "15:00")
	h.book(t, h.alice, "2025-11-18", "14:00", "15:00")
	h.book(t, h.admin, "2025-11-18", "16:00", "17:00")
	h.store.AddBooking(h.alice.UserID, h.room.ID, "2025-11-10", "08:00", "08:30", entity.BookingPending, "Elapsed")

	_, err := h.svc.Calendar.PendingRequests(context.Background(), h.alice)
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	pending, err := h.svc.Calendar.PendingRequests(context.Background(), h.admin)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "alice", pending[0].UserName)
	assert.Equal(t, "alice@example.com", pending[0].UserEmail)
	assert.Equal(t, "2025-11-18", pending[0].SlotDate)
	assert.Equal(t, "bob", pending[1].UserName)
}
