package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/data/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotAt(roomID int64, date, start, end string) *entity.Timeslot {
	return &entity.Timeslot{
		RoomID:    roomID,
		SlotDate:  mustDate(date),
		StartTime: mustTime(start),
		EndTime:   mustTime(end),
		Status:    entity.TimeslotBooked,
	}
}

func TestTimeslotCreate_ExclusionGuard(t *testing.T) {
	s := NewStore()
	room := s.AddRoom("A", true)
	repo := s.Repository()
	ctx := context.Background()

	require.NoError(t, repo.Timeslot.Create(ctx, slotAt(room.ID, "2025-11-18", "14:00", "15:00")))
	assert.ErrorIs(t, repo.Timeslot.Create(ctx, slotAt(room.ID, "2025-11-18", "14:30", "15:30")), repository.ErrSlotTaken)
	assert.NoError(t, repo.Timeslot.Create(ctx, slotAt(room.ID, "2025-11-18", "15:00", "16:00")))
	assert.NoError(t, repo.Timeslot.Create(ctx, slotAt(room.ID, "2025-11-19", "14:00", "15:00")))

	available := slotAt(room.ID, "2025-11-18", "14:00", "15:00")
	available.Status = entity.TimeslotAvailable
	assert.NoError(t, repo.Timeslot.Create(ctx, available))
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	room := s.AddRoom("A", true)
	repo := s.Repository()
	boom := errors.New("boom")

	err := repo.WithinTx(context.Background(), func(tx *repository.Repository) error {
		require.NoError(t, tx.Timeslot.Create(context.Background(), slotAt(room.ID, "2025-11-18", "14:00", "15:00")))
		// Nested transactions join the outer one.
		return tx.WithinTx(context.Background(), func(inner *repository.Repository) error {
			require.NoError(t, inner.Timeslot.Create(context.Background(), slotAt(room.ID, "2025-11-18", "16:00", "17:00")))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Timeslots())

	err = repo.WithinTx(context.Background(), func(tx *repository.Repository) error {
		return tx.Timeslot.Create(context.Background(), slotAt(room.ID, "2025-11-18", "14:00", "15:00"))
	})
	require.NoError(t, err)
	assert.Len(t, s.Timeslots(), 1)
}

func TestFailAfter(t *testing.T) {
	s := NewStore()
	room := s.AddRoom("A", true)
	repo := s.Repository()
	boom := errors.New("boom")
	s.FailAfter("room.find", 1, boom)

	_, err := repo.Room.FindByID(context.Background(), room.ID)
	require.NoError(t, err)
	_, err = repo.Room.FindByID(context.Background(), room.ID)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, s.Calls("room.find"))
}

func TestConfirmElapsed_StrictBoundary(t *testing.T) {
	s := NewStore()
	user := s.AddUser("u", entity.RoleUser)
	room := s.AddRoom("A", true)
	at9, _ := s.AddBooking(user.ID, room.ID, "2025-11-10", "09:00", "10:00", entity.BookingPending, "x")
	repo := s.Repository()
	today := mustDate("2025-11-10")

	rooms, err := repo.Booking.ConfirmElapsed(context.Background(), today, "09:00:00")
	require.NoError(t, err)
	assert.Empty(t, rooms)

	rooms, err = repo.Booking.ConfirmElapsed(context.Background(), today, "09:00:01")
	require.NoError(t, err)
	assert.Equal(t, []int64{room.ID}, rooms)

	b, _ := s.Booking(at9.ID)
	assert.Equal(t, entity.BookingConfirmed, b.Status)
}

func TestDeleteCascades(t *testing.T) {
	s := NewStore()
	user := s.AddUser("u", entity.RoleUser)
	room := s.AddRoom("A", true)
	_, ts := s.AddBooking(user.ID, room.ID, "2025-11-18", "09:00", "10:00", entity.BookingPending, "x")
	repo := s.Repository()

	n, err := repo.Timeslot.Delete(context.Background(), []int64{ts.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Empty(t, s.Bookings())
}

func TestClock(t *testing.T) {
	c := NewClock(time.Time{})
	assert.Equal(t, ReferenceTime, c.Now())
	assert.Equal(t, ReferenceTime.Add(time.Minute), c.Advance(time.Minute))
}
