package usecase

import (
	"context"
	"errors"
	"testing"

	"room-reservation/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRooms_HidesInvisibleFromNonAdmins(t *testing.T) {
	h := newHarness(t)

	rooms, err := h.svc.Room.ListRooms(context.Background(), h.guest)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Boardroom", rooms[0].Name)

	rooms, err = h.svc.Room.ListRooms(context.Background(), h.admin)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestGetRoom(t *testing.T) {
	h := newHarness(t)

	room, err := h.svc.Room.GetRoom(context.Background(), h.alice, h.room.ID)
	require.NoError(t, err)
	assert.Equal(t, h.room.ID, room.ID)

	_, err = h.svc.Room.GetRoom(context.Background(), h.alice, h.hidden.ID)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCreateRoom(t *testing.T) {
	h := newHarness(t)
	req := &request.CreateRoomRequest{Name: "  Atrium ", Capacity: ptr(12)}

	_, err := h.svc.Room.CreateRoom(context.Background(), h.alice, req)
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	room, err := h.svc.Room.CreateRoom(context.Background(), h.admin, req)
	require.NoError(t, err)
	assert.Equal(t, "Atrium", room.Name)
	assert.True(t, room.IsVisible)
	assert.Equal(t, h.admin.UserID, room.CreatedBy)
	require.NotNil(t, room.Capacity)
	assert.Equal(t, 12, *room.Capacity)

	hidden, err := h.svc.Room.CreateRoom(context.Background(), h.admin, &request.CreateRoomRequest{Name: "Vault", IsVisible: ptr(false)})
	require.NoError(t, err)
	assert.False(t, hidden.IsVisible)

	_, err = h.svc.Room.CreateRoom(context.Background(), h.admin, &request.CreateRoomRequest{Name: "   "})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = h.svc.Room.CreateRoom(context.Background(), h.admin, &request.CreateRoomRequest{Name: "Lab", Capacity: ptr(0)})
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteRoom_CascadesAndInvalidates(t *testing.T) {
	h := newHarness(t)
	h.book(t, h.alice, "2025-11-18", "14:00", "15:00")
	pid := h.series(t, h.alice, dailyWeek())

	err := h.svc.Room.DeleteRoom(context.Background(), h.alice, h.room.ID)
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	require.NoError(t, h.svc.Room.DeleteRoom(context.Background(), h.admin, h.room.ID))
	assert.Empty(t, h.store.Bookings())
	assert.Empty(t, h.store.Timeslots())
	_, ok := h.store.Pattern(pid)
	assert.False(t, ok, "series of a deleted room must not outlive its bookings")
	assert.Zero(t, h.store.PatternCount())
	assert.Contains(t, h.cache.Invalidated(), h.room.ID)

	err = h.svc.Room.DeleteRoom(context.Background(), h.admin, h.room.ID)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeleteRoom_RollsBackWhenSeriesCleanupFails(t *testing.T) {
	h := newHarness(t)
	pid := h.series(t, h.alice, dailyWeek())
	h.store.FailAfter("pattern.delete", 0, errors.New("connection reset"))

	err := h.svc.Room.DeleteRoom(context.Background(), h.admin, h.room.ID)
	assert.ErrorContains(t, err, "connection reset")

	_, ok := h.store.Pattern(pid)
	assert.True(t, ok)
	assert.Len(t, h.store.Bookings(), 5)
	_, err = h.svc.Room.GetRoom(context.Background(), h.admin, h.room.ID)
	assert.NoError(t, err)
}
