package entity

import (
	"time"

	"room-reservation/pkg/dateutil"
)

// RecurringPattern links the bookings of one recurring request. EndDate is what the
// requester asked for, UntilDate the cap that was actually applied.
type RecurringPattern struct {
	BaseSimple
	Frequency dateutil.Frequency `db:"frequency"`
	StartDate time.Time          `db:"start_date"`
	EndDate   time.Time          `db:"end_date"`
	UntilDate time.Time          `db:"until_date"`
}
