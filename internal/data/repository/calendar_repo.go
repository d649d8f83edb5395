package repository

import (
	"context"
	"fmt"
	"time"

	"room-reservation/internal/data/entity"
	"room-reservation/pkg/database"
	"room-reservation/pkg/dateutil"

	"go.uber.org/zap"
)

// CalendarRepository serves the joined read models of the calendar endpoints.
type CalendarRepository interface {
	FindRoomCalendar(ctx context.Context, roomID int64) ([]*entity.CalendarEntry, error)
	FindUserBookings(ctx context.Context, userID int64) ([]*entity.UserBookingEntry, error)
	FindPendingRequests(ctx context.Context) ([]*entity.PendingRequest, error)
}

type calendarRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewCalendarRepository(db database.DBTX, log *zap.Logger) CalendarRepository {
	return &calendarRepository{
		db:  db,
		log: log.With(zap.String("repository", "calendar")),
	}
}

func (r *calendarRepository) FindRoomCalendar(ctx context.Context, roomID int64) ([]*entity.CalendarEntry, error) {
	query := `
		SELECT ` + timeslotColumns + `,
		       rm.name, b.id, b.status, b.reason, b.user_id, u.name,
		       COALESCE(b.is_recurring, FALSE), b.pattern_id
		FROM timeslots t
		JOIN rooms rm ON rm.id = t.room_id
		LEFT JOIN bookings b ON b.timeslot_id = t.id
		LEFT JOIN users u ON u.id = b.user_id
		WHERE t.room_id = $1
		ORDER BY t.slot_date, t.start_time
	`

	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		r.log.Error("Failed to query room calendar", zap.Error(err), zap.Int64("room_id", roomID))
		return nil, fmt.Errorf("find calendar of room %d: %w", roomID, err)
	}
	defer rows.Close()

	var entries []*entity.CalendarEntry
	for rows.Next() {
		var ts timeslotScan
		var entry entity.CalendarEntry
		var bookingStatus *int16
		dest := append(ts.dest(),
			&entry.RoomName, &entry.BookingID, &bookingStatus, &entry.Reason,
			&entry.UserID, &entry.UserName, &entry.IsRecurring, &entry.PatternID,
		)
		if err := rows.Scan(dest...); err != nil {
			r.log.Error("Failed to scan calendar row", zap.Error(err))
			return nil, fmt.Errorf("scan calendar row: %w", err)
		}
		if entry.Timeslot, err = ts.result(); err != nil {
			return nil, err
		}
		if bookingStatus != nil {
			status := entity.BookingStatus(*bookingStatus)
			entry.BookingStatus = &status
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find calendar of room %d: %w", roomID, err)
	}

	return entries, nil
}

func (r *calendarRepository) FindUserBookings(ctx context.Context, userID int64) ([]*entity.UserBookingEntry, error) {
	query := `
		SELECT ` + bookingColumns + `, ` + timeslotColumns + `,
		       rm.name, p.frequency, p.end_date, p.until_date
		FROM bookings b
		JOIN timeslots t ON t.id = b.timeslot_id
		JOIN rooms rm ON rm.id = t.room_id
		LEFT JOIN recurring_patterns p ON p.id = b.pattern_id
		WHERE b.user_id = $1
		ORDER BY t.slot_date, t.start_time
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to query user bookings", zap.Error(err), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("find bookings of user %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []*entity.UserBookingEntry
	for rows.Next() {
		var bs bookingScan
		var ts timeslotScan
		var entry entity.UserBookingEntry
		var frequency *string
		var endDate, untilDate *time.Time

		dest := append(bs.dest(), ts.dest()...)
		dest = append(dest, &entry.RoomName, &frequency, &endDate, &untilDate)
		if err := rows.Scan(dest...); err != nil {
			r.log.Error("Failed to scan user booking row", zap.Error(err))
			return nil, fmt.Errorf("scan user booking row: %w", err)
		}
		if entry.Booking, err = bs.result(); err != nil {
			return nil, err
		}
		if entry.Timeslot, err = ts.result(); err != nil {
			return nil, err
		}
		if entry.Frequency, err = parseOptionalFrequency(frequency); err != nil {
			return nil, err
		}
		entry.EndDate = optionalDate(endDate)
		entry.UntilDate = optionalDate(untilDate)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find bookings of user %d: %w", userID, err)
	}

	return entries, nil
}

func (r *calendarRepository) FindPendingRequests(ctx context.Context) ([]*entity.PendingRequest, error) {
	query := `
		SELECT ` + bookingColumns + `, ` + timeslotColumns + `,
		       rm.name, u.name, u.email, p.frequency, p.until_date
		FROM bookings b
		JOIN timeslots t ON t.id = b.timeslot_id
		JOIN rooms rm ON rm.id = t.room_id
		JOIN users u ON u.id = b.user_id
		LEFT JOIN recurring_patterns p ON p.id = b.pattern_id
		WHERE b.status = $1
		ORDER BY t.slot_date, t.start_time, b.id
	`

	rows, err := r.db.Query(ctx, query, int16(entity.BookingPending))
	if err != nil {
		r.log.Error("Failed to query pending requests", zap.Error(err))
		return nil, fmt.Errorf("find pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.PendingRequest
	for rows.Next() {
		var bs bookingScan
		var ts timeslotScan
		var req entity.PendingRequest
		var frequency *string
		var untilDate *time.Time

		dest := append(bs.dest(), ts.dest()...)
		dest = append(dest, &req.RoomName, &req.UserName, &req.UserEmail, &frequency, &untilDate)
		if err := rows.Scan(dest...); err != nil {
			r.log.Error("Failed to scan pending request row", zap.Error(err))
			return nil, fmt.Errorf("scan pending request row: %w", err)
		}
		if req.Booking, err = bs.result(); err != nil {
			return nil, err
		}
		if req.Timeslot, err = ts.result(); err != nil {
			return nil, err
		}
		if req.Frequency, err = parseOptionalFrequency(frequency); err != nil {
			return nil, err
		}
		req.UntilDate = optionalDate(untilDate)
		requests = append(requests, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find pending requests: %w", err)
	}

	return requests, nil
}

func parseOptionalFrequency(s *string) (*dateutil.Frequency, error) {
	if s == nil {
		return nil, nil
	}
	f, err := dateutil.ParseFrequency(*s)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func optionalDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := dateutil.DateOf(*t)
	return &d
}
