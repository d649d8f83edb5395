package response

import "time"

// CalendarSlot is one timeslot of a room with its booking, if any.
type CalendarSlot struct {
	TimeslotID    int64   `json:"timeslot_id"`
	RoomID        int64   `json:"room_id"`
	RoomName      string  `json:"room_name"`
	SlotDate      string  `json:"slot_date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Status        string  `json:"status"`
	BlockedReason *string `json:"blocked_reason,omitempty"`
	BookingID     *int64  `json:"booking_id,omitempty"`
	BookingStatus *string `json:"booking_status,omitempty"`
	Reason        *string `json:"reason,omitempty"`
	UserID        *int64  `json:"user_id,omitempty"`
	UserName      *string `json:"user_name,omitempty"`
	IsRecurring   bool    `json:"is_recurring"`
	PatternID     *int64  `json:"pattern_id,omitempty"`
}

type UserBooking struct {
	BookingID     int64     `json:"booking_id"`
	TimeslotID    int64     `json:"timeslot_id"`
	RoomID        int64     `json:"room_id"`
	RoomName      string    `json:"room_name"`
	SlotDate      string    `json:"slot_date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Reason        string    `json:"reason"`
	BookingStatus string    `json:"booking_status"`
	IsRecurring   bool      `json:"is_recurring"`
	PatternID     *int64    `json:"pattern_id,omitempty"`
	Frequency     *string   `json:"frequency,omitempty"`
	EndDate       *string   `json:"end_date,omitempty"`
	UntilDate     *string   `json:"until_date,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type PendingRequest struct {
	BookingID   int64     `json:"booking_id"`
	TimeslotID  int64     `json:"timeslot_id"`
	RoomID      int64     `json:"room_id"`
	RoomName    string    `json:"room_name"`
	SlotDate    string    `json:"slot_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Reason      string    `json:"reason"`
	UserID      int64     `json:"user_id"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	IsRecurring bool      `json:"is_recurring"`
	PatternID   *int64    `json:"pattern_id,omitempty"`
	Frequency   *string   `json:"frequency,omitempty"`
	UntilDate   *string   `json:"until_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookingCreated struct {
	BookingID     int64  `json:"booking_id"`
	TimeslotID    int64  `json:"timeslot_id"`
	BookingStatus string `json:"booking_status"`
	SlotDate      string `json:"slot_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

type SeriesCreated struct {
	BookingsCount int              `json:"bookings_count"`
	PatternID     int64            `json:"pattern_id"`
	Frequency     string           `json:"frequency"`
	EndDate       string           `json:"end_date"`
	UntilDate     string           `json:"until_date"`
	Bookings      []BookingCreated `json:"bookings"`
}

// BookingResult carries exactly one of its two members and renders as that member.
type BookingResult struct {
	*BookingCreated
	*SeriesCreated
}

type ApprovalResult struct {
	Action     string  `json:"action"`
	Affected   int     `json:"affected"`
	BookingIDs []int64 `json:"booking_ids"`
	PatternID  *int64  `json:"pattern_id,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
}

type TimeslotResult struct {
	TimeslotID    int64   `json:"timeslot_id"`
	RoomID        int64   `json:"room_id"`
	SlotDate      string  `json:"slot_date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Status        string  `json:"status"`
	BlockedReason *string `json:"blocked_reason,omitempty"`
}
