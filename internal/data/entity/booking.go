package entity

import "fmt"

type BookingStatus int16

const (
	BookingPending   BookingStatus = 0
	BookingConfirmed BookingStatus = 1
	BookingDeclined  BookingStatus = 2
)

func (s BookingStatus) String() string {
	switch s {
	case BookingPending:
		return "pending"
	case BookingConfirmed:
		return "confirmed"
	case BookingDeclined:
		return "declined"
	default:
		return fmt.Sprintf("booking_status(%d)", int16(s))
	}
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingDeclined:
		return true
	default:
		return false
	}
}

// Booking is a user's claim on exactly one timeslot.
type Booking struct {
	Base
	UserID      int64         `db:"user_id"`
	TimeslotID  int64         `db:"timeslot_id"`
	Reason      string        `db:"reason"`
	Status      BookingStatus `db:"status"`
	IsRecurring bool          `db:"is_recurring"`
	PatternID   *int64        `db:"pattern_id"`
}

// BookingSlot is a booking joined with its timeslot.
type BookingSlot struct {
	Booking  Booking
	Timeslot Timeslot
}
