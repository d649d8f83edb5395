// Package notify delivers booking decisions to requesters. Delivery is best-effort:
// callers log a failed Dispatch and carry on.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingAccepted EventType = "booking.accepted"
	EventBookingRejected EventType = "booking.rejected"
)

// Event describes one decision on a booking or on a whole series. For a series the slot
// fields describe the earliest affected occurrence and Occurrences counts all of them.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	BookingID   int64     `json:"booking_id"`
	PatternID   *int64    `json:"pattern_id,omitempty"`
	Occurrences int       `json:"occurrences"`
	UserID      int64     `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	UserEmail   string    `json:"user_email,omitempty"`
	RoomID      int64     `json:"room_id"`
	RoomName    string    `json:"room_name,omitempty"`
	SlotDate    string    `json:"slot_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh id.
func NewEvent(typ EventType, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: at.UTC(),
	}
}

type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
	Close() error
}
