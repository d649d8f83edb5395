package usecase

import (
	"context"
	"testing"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockReq(roomID int64, date, start, end string) *request.BlockSlotRequest {
	return &request.BlockSlotRequest{RoomID: roomID, SlotDate: date, StartTime: start, EndTime: end}
}

func TestBlockSlot(t *testing.T) {
	h := newHarness(t)

	req := blockReq(h.room.ID, "2025-11-18", "12:00", "13:00")
	req.Reason = ptr("  Maintenance  ")
	res, err := h.svc.Block.BlockSlot(context.Background(), h.admin, req)
	require.NoError(t, err)
	assert.Equal(t, "blocked", res.Status)
	require.NotNil(t, res.BlockedReason)
	assert.Equal(t, "Maintenance", *res.BlockedReason)
	assert.Contains(t, h.cache.Invalidated(), h.room.ID)

	// Blocked time cannot be booked.
	conflict, _ := h.book(t, h.alice, "2025-11-18", "12:30", "13:30")
	require.NotNil(t, conflict)
	assert.Equal(t, "12:00-13:00", conflict.Range)
	assert.Equal(t, "Maintenance", conflict.Reason)
	assert.Contains(t, conflict.Message, "blocked slot")
}

func TestBlockSlot_BlankReasonIsDropped(t *testing.T) {
	h := newHarness(t)
	req := blockReq(h.room.ID, "2025-11-18", "12:00", "13:00")
	req.Reason = ptr("   ")

	res, err := h.svc.Block.BlockSlot(context.Background(), h.admin, req)
	require.NoError(t, err)
	assert.Nil(t, res.BlockedReason)
}

func TestBlockSlot_ConflictsWithBooking(t *testing.T) {
	h := newHarness(t)
	h.book(t, h.alice, "2025-11-18", "12:00", "13:00")

	_, err := h.svc.Block.BlockSlot(context.Background(), h.admin, blockReq(h.room.ID, "2025-11-18", "11:00", "12:30"))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Planning", conflict.Reason)

	// Adjacent is fine.
	_, err = h.svc.Block.BlockSlot(context.Background(), h.admin, blockReq(h.room.ID, "2025-11-18", "11:00", "12:00"))
	require.NoError(t, err)
}

func TestBlockSlot_Rejections(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Block.BlockSlot(context.Background(), h.alice, blockReq(h.room.ID, "2025-11-18", "12:00", "13:00"))
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	_, err = h.svc.Block.BlockSlot(context.Background(), h.admin, blockReq(h.room.ID, "2025-11-10", "08:00", "09:00"))
	var past *PastDateError
	require.ErrorAs(t, err, &past)
	assert.Equal(t, "Cannot block a slot in the past", past.Message)

	_, err = h.svc.Block.BlockSlot(context.Background(), h.admin, blockReq(h.room.ID, "2025-11-18", "13:00", "12:00"))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = h.svc.Block.BlockSlot(context.Background(), h.admin, blockReq(h.room.ID, "18/11/2025", "12:00", "13:00"))
	assert.ErrorAs(t, err, &verr)

	_, err = h.svc.Block.BlockSlot(context.Background(), h.admin, blockReq(999, "2025-11-18", "12:00", "13:00"))
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	// Admins can block hidden rooms.
	_, err = h.svc.Block.BlockSlot(context.Background(), h.admin, blockReq(h.hidden.ID, "2025-11-18", "12:00", "13:00"))
	assert.NoError(t, err)
}

func TestUnblockSlot(t *testing.T) {
	h := newHarness(t)
	blocked := h.store.AddBlock(h.room.ID, "2025-11-18", "12:00", "13:00", ptr("Cleaning"))
	_, booked := h.store.AddBooking(h.alice.UserID, h.room.ID, "2025-11-19", "12:00", "13:00", entity.BookingPending, "Sync")

	_, err := h.svc.Block.UnblockSlot(context.Background(), h.bob, blocked.ID)
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	res, err := h.svc.Block.UnblockSlot(context.Background(), h.admin, blocked.ID)
	require.NoError(t, err)
	assert.Equal(t, blocked.ID, res.TimeslotID)
	_, ok := h.store.Timeslot(blocked.ID)
	assert.False(t, ok)

	// Booked slots and unknown ids are not unblockable.
	_, err = h.svc.Block.UnblockSlot(context.Background(), h.admin, booked.ID)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
	_, ok = h.store.Timeslot(booked.ID)
	assert.True(t, ok)

	_, err = h.svc.Block.UnblockSlot(context.Background(), h.admin, blocked.ID)
	assert.ErrorAs(t, err, &notFound)

	// The freed range can be booked again.
	conflict, _ := h.book(t, h.alice, "2025-11-18", "12:00", "13:00")
	assert.Nil(t, conflict)
}
