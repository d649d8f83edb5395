package usecase

import (
	"context"
	"fmt"
	"time"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/data/repository"
	"room-reservation/pkg/dateutil"
)

// OverlapDetector is the one place that decides whether a requested range collides with
// an active timeslot. Booking, recurring booking and blocking all go through it, passing
// the transaction-scoped timeslot repository so the check reads live rows.
type OverlapDetector interface {
	// HasOverlap returns the first active slot of the room on date that intersects
	// [start, end), or nil.
	HasOverlap(ctx context.Context, slots repository.TimeslotRepository, roomID int64, date time.Time, start, end dateutil.TimeOfDay) (*entity.Occupancy, error)

	// Conflicts returns every active slot of the room that intersects [start, end) on
	// any of dates, ordered by date and start time.
	Conflicts(ctx context.Context, slots repository.TimeslotRepository, roomID int64, dates []time.Time, start, end dateutil.TimeOfDay) ([]entity.Occupancy, error)
}

type overlapDetector struct{}

func NewOverlapDetector() OverlapDetector {
	return overlapDetector{}
}

func (d overlapDetector) HasOverlap(ctx context.Context, slots repository.TimeslotRepository, roomID int64, date time.Time, start, end dateutil.TimeOfDay) (*entity.Occupancy, error) {
	hits, err := d.Conflicts(ctx, slots, roomID, []time.Time{date}, start, end)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return &hits[0], nil
}

func (overlapDetector) Conflicts(ctx context.Context, slots repository.TimeslotRepository, roomID int64, dates []time.Time, start, end dateutil.TimeOfDay) ([]entity.Occupancy, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	candidates, err := slots.FindActiveOverlapping(ctx, roomID, dates, start, end)
	if err != nil {
		return nil, err
	}

	wanted := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		wanted[dateutil.DateOf(d)] = struct{}{}
	}

	// Same half-open test the store applies.
	hits := candidates[:0]
	for _, c := range candidates {
		if c.Timeslot.RoomID != roomID || !c.Timeslot.Status.Active() {
			continue
		}
		if _, ok := wanted[dateutil.DateOf(c.Timeslot.SlotDate)]; !ok {
			continue
		}
		if !dateutil.Overlaps(c.Timeslot.StartTime, c.Timeslot.EndTime, start, end) {
			continue
		}
		hits = append(hits, c)
	}
	return hits, nil
}

// slotConflict describes a collision of a single requested slot.
func slotConflict(hit entity.Occupancy) *ConflictError {
	var what string
	switch hit.Timeslot.Status {
	case entity.TimeslotBlocked:
		what = "a blocked slot"
	case entity.TimeslotBooked:
		what = "an existing booking"
	case entity.TimeslotAvailable:
		what = "an existing timeslot"
	default:
		what = "an existing timeslot"
	}

	reason := hit.Reason()
	msg := fmt.Sprintf("Time slot conflicts with %s at %s", what, hit.Timeslot.Range())
	if reason != "" {
		msg += fmt.Sprintf(" (reason: %s)", reason)
	}

	return &ConflictError{
		Message: msg,
		Range:   hit.Timeslot.Range(),
		Reason:  reason,
	}
}

// conflictDates lists the distinct dates of hits in order.
func conflictDates(hits []entity.Occupancy) []string {
	var dates []string
	seen := make(map[string]struct{})
	for _, h := range hits {
		d := dateutil.FormatDate(h.Timeslot.SlotDate)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	return dates
}
