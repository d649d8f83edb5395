package entity

import (
	"time"

	"room-reservation/pkg/dateutil"
)

// CalendarEntry is a timeslot of a room with its optional booking and requester.
type CalendarEntry struct {
	Timeslot      Timeslot
	RoomName      string
	BookingID     *int64
	BookingStatus *BookingStatus
	Reason        *string
	UserID        *int64
	UserName      *string
	IsRecurring   bool
	PatternID     *int64
}

// UserBookingEntry is a booking of one user with display fields.
type UserBookingEntry struct {
	Booking   Booking
	Timeslot  Timeslot
	RoomName  string
	Frequency *dateutil.Frequency
	EndDate   *time.Time
	UntilDate *time.Time
}

// PendingRequest is a pending booking with requester identity.
type PendingRequest struct {
	Booking   Booking
	Timeslot  Timeslot
	RoomName  string
	UserName  string
	UserEmail string
	Frequency *dateutil.Frequency
	UntilDate *time.Time
}
