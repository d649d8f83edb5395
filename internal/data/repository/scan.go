package repository

import (
	"fmt"

	"room-reservation/internal/data/entity"
	"room-reservation/pkg/dateutil"
)

type scanner interface {
	Scan(dest ...any) error
}

// timeslotColumns must stay in the order read by timeslotScan.
const timeslotColumns = `t.id, t.room_id, t.slot_date, t.start_time::text, t.end_time::text,
	t.status, t.blocked_reason, t.created_at, t.updated_at`

const bookingColumns = `b.id, b.user_id, b.timeslot_id, b.reason, b.status, b.is_recurring,
	b.pattern_id, b.created_at, b.updated_at`

// timeslotScan collects the raw columns of a timeslot so they can be combined with
// other columns in one Scan call.
type timeslotScan struct {
	slot   entity.Timeslot
	start  string
	end    string
	status int16
}

func (s *timeslotScan) dest() []any {
	return []any{
		&s.slot.ID, &s.slot.RoomID, &s.slot.SlotDate, &s.start, &s.end,
		&s.status, &s.slot.BlockedReason, &s.slot.CreatedAt, &s.slot.UpdatedAt,
	}
}

func (s *timeslotScan) result() (entity.Timeslot, error) {
	start, err := dateutil.ParseTimeOfDay(s.start)
	if err != nil {
		return entity.Timeslot{}, fmt.Errorf("timeslot %d start: %w", s.slot.ID, err)
	}
	end, err := dateutil.ParseTimeOfDay(s.end)
	if err != nil {
		return entity.Timeslot{}, fmt.Errorf("timeslot %d end: %w", s.slot.ID, err)
	}
	status := entity.TimeslotStatus(s.status)
	if !status.Valid() {
		return entity.Timeslot{}, fmt.Errorf("timeslot %d has unknown status %d", s.slot.ID, s.status)
	}

	slot := s.slot
	slot.SlotDate = dateutil.DateOf(slot.SlotDate)
	slot.StartTime = start
	slot.EndTime = end
	slot.Status = status
	return slot, nil
}

type bookingScan struct {
	booking entity.Booking
	status  int16
}

func (s *bookingScan) dest() []any {
	return []any{
		&s.booking.ID, &s.booking.UserID, &s.booking.TimeslotID, &s.booking.Reason, &s.status,
		&s.booking.IsRecurring, &s.booking.PatternID, &s.booking.CreatedAt, &s.booking.UpdatedAt,
	}
}

func (s *bookingScan) result() (entity.Booking, error) {
	status := entity.BookingStatus(s.status)
	if !status.Valid() {
		return entity.Booking{}, fmt.Errorf("booking %d has unknown status %d", s.booking.ID, s.status)
	}
	b := s.booking
	b.Status = status
	return b, nil
}

func scanTimeslot(row scanner) (*entity.Timeslot, error) {
	var ts timeslotScan
	if err := row.Scan(ts.dest()...); err != nil {
		return nil, err
	}
	slot, err := ts.result()
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func scanBookingSlot(row scanner) (*entity.BookingSlot, error) {
	var bs bookingScan
	var ts timeslotScan
	if err := row.Scan(append(bs.dest(), ts.dest()...)...); err != nil {
		return nil, err
	}
	booking, err := bs.result()
	if err != nil {
		return nil, err
	}
	slot, err := ts.result()
	if err != nil {
		return nil, err
	}
	return &entity.BookingSlot{Booking: booking, Timeslot: slot}, nil
}

func toInt16s[S ~int16](in []S) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		out[i] = int16(v)
	}
	return out
}
