package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"room-reservation/internal/data/entity"
	"room-reservation/pkg/database"
	"room-reservation/pkg/dateutil"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindWithSlot(ctx context.Context, id int64) (*entity.BookingSlot, error)
	FindWithSlots(ctx context.Context, ids []int64) ([]*entity.BookingSlot, error)
	FindByPattern(ctx context.Context, patternID int64) ([]*entity.BookingSlot, error)
	CountByPattern(ctx context.Context, patternID int64) (int64, error)
	UpdateStatus(ctx context.Context, ids []int64, status entity.BookingStatus) (int64, error)
	Delete(ctx context.Context, ids []int64) (int64, error)

	// ConfirmElapsed confirms every pending booking whose slot starts before the given
	// wall-clock date and time, returning the room of each confirmed booking.
	ConfirmElapsed(ctx context.Context, date time.Time, clock string) ([]int64, error)
}

type bookingRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewBookingRepository(db database.DBTX, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingSlotSelect = `
	SELECT ` + bookingColumns + `, ` + timeslotColumns + `
	FROM bookings b
	JOIN timeslots t ON t.id = b.timeslot_id
`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (user_id, timeslot_id, reason, status, is_recurring, pattern_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		booking.UserID,
		booking.TimeslotID,
		booking.Reason,
		int16(booking.Status),
		booking.IsRecurring,
		booking.PatternID,
		booking.CreatedAt,
		booking.UpdatedAt,
	).Scan(&booking.ID)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.Int64("user_id", booking.UserID),
			zap.Int64("timeslot_id", booking.TimeslotID),
		)
		return fmt.Errorf("create booking for timeslot %d: %w", booking.TimeslotID, err)
	}

	return nil
}

func (r *bookingRepository) FindWithSlot(ctx context.Context, id int64) (*entity.BookingSlot, error) {
	query := bookingSlotSelect + ` WHERE b.id = $1`

	bs, err := scanBookingSlot(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID", zap.Error(err), zap.Int64("booking_id", id))
		return nil, fmt.Errorf("find booking by ID %d: %w", id, err)
	}

	return bs, nil
}

func (r *bookingRepository) FindWithSlots(ctx context.Context, ids []int64) ([]*entity.BookingSlot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := bookingSlotSelect + ` WHERE b.id = ANY($1::bigint[]) ORDER BY t.slot_date, t.start_time`
	return r.list(ctx, "find bookings by IDs", query, ids)
}

func (r *bookingRepository) FindByPattern(ctx context.Context, patternID int64) ([]*entity.BookingSlot, error) {
	query := bookingSlotSelect + ` WHERE b.pattern_id = $1 ORDER BY t.slot_date, t.start_time`
	return r.list(ctx, "find bookings by pattern", query, patternID)
}

func (r *bookingRepository) list(ctx context.Context, op, query string, args ...any) ([]*entity.BookingSlot, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to "+op, zap.Error(err), zap.Any("args", args))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*entity.BookingSlot
	for rows.Next() {
		bs, err := scanBookingSlot(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		out = append(out, bs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (r *bookingRepository) CountByPattern(ctx context.Context, patternID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE pattern_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, patternID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by pattern", zap.Error(err), zap.Int64("pattern_id", patternID))
		return 0, fmt.Errorf("count bookings of pattern %d: %w", patternID, err)
	}

	return count, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, ids []int64, status entity.BookingStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = ANY($1::bigint[])`

	result, err := r.db.Exec(ctx, query, ids, int16(status))
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.Int64s("booking_ids", ids),
			zap.String("status", status.String()),
		)
		return 0, fmt.Errorf("update %d bookings to %s: %w", len(ids), status, err)
	}

	return result.RowsAffected(), nil
}

func (r *bookingRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM bookings WHERE id = ANY($1::bigint[])`

	result, err := r.db.Exec(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to delete bookings", zap.Error(err), zap.Int64s("booking_ids", ids))
		return 0, fmt.Errorf("delete %d bookings: %w", len(ids), err)
	}

	return result.RowsAffected(), nil
}

func (r *bookingRepository) ConfirmElapsed(ctx context.Context, date time.Time, clock string) ([]int64, error) {
	query := `
		UPDATE bookings b
		SET status = $1, updated_at = NOW()
		FROM timeslots t
		WHERE b.timeslot_id = t.id
		  AND b.status = $2
		  AND (t.slot_date < $3 OR (t.slot_date = $3 AND t.start_time < $4::text::time))
		RETURNING t.room_id
	`

	rows, err := r.db.Query(ctx, query,
		int16(entity.BookingConfirmed),
		int16(entity.BookingPending),
		date,
		clock,
	)
	if err != nil {
		r.log.Error("Failed to confirm elapsed bookings",
			zap.Error(err),
			zap.String("date", dateutil.FormatDate(date)),
			zap.String("clock", clock),
		)
		return nil, fmt.Errorf("confirm elapsed bookings: %w", err)
	}
	defer rows.Close()

	var rooms []int64
	for rows.Next() {
		var roomID int64
		if err := rows.Scan(&roomID); err != nil {
			return nil, fmt.Errorf("scan confirmed room: %w", err)
		}
		rooms = append(rooms, roomID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("confirm elapsed bookings: %w", err)
	}

	return rooms, nil
}
