package entity

import (
	"fmt"
	"time"

	"room-reservation/pkg/dateutil"
)

type TimeslotStatus int16

const (
	TimeslotAvailable TimeslotStatus = 1
	TimeslotBooked    TimeslotStatus = 2
	TimeslotBlocked   TimeslotStatus = 3
)

func (s TimeslotStatus) String() string {
	switch s {
	case TimeslotAvailable:
		return "available"
	case TimeslotBooked:
		return "booked"
	case TimeslotBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("timeslot_status(%d)", int16(s))
	}
}

// Active reports whether the slot occupies its room.
func (s TimeslotStatus) Active() bool {
	switch s {
	case TimeslotBooked, TimeslotBlocked:
		return true
	case TimeslotAvailable:
		return false
	default:
		return false
	}
}

func (s TimeslotStatus) Valid() bool {
	switch s {
	case TimeslotAvailable, TimeslotBooked, TimeslotBlocked:
		return true
	default:
		return false
	}
}

// Timeslot is a reservable block of room-time. SlotDate is a UTC-midnight calendar date.
type Timeslot struct {
	Base
	RoomID        int64              `db:"room_id"`
	SlotDate      time.Time          `db:"slot_date"`
	StartTime     dateutil.TimeOfDay `db:"start_time"`
	EndTime       dateutil.TimeOfDay `db:"end_time"`
	Status        TimeslotStatus     `db:"status"`
	BlockedReason *string            `db:"blocked_reason"`
}

// Range renders "HH:MM-HH:MM".
func (t *Timeslot) Range() string {
	return dateutil.FormatRange(t.StartTime, t.EndTime)
}

// StartsAt is the instant the slot begins when its wall-clock time is read in loc.
func (t *Timeslot) StartsAt(loc *time.Location) time.Time {
	return dateutil.Combine(t.SlotDate, t.StartTime, loc)
}

// Occupancy is an active timeslot and, when booked, the reason given by its booking.
type Occupancy struct {
	Timeslot      Timeslot
	BookingReason *string
}

// Reason prefers the booking reason and falls back to the blocked reason.
func (o Occupancy) Reason() string {
	if o.BookingReason != nil && *o.BookingReason != "" {
		return *o.BookingReason
	}
	if o.Timeslot.BlockedReason != nil {
		return *o.Timeslot.BlockedReason
	}
	return ""
}
