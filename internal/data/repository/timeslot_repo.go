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
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const exclusionViolation = "23P01"

// overlapPredicate is the single definition of interval intersection used by the store:
// half-open [start, end) ranges intersect iff start_a < end_b AND end_a > start_b.
const overlapPredicate = `t.start_time < $4::text::time AND t.end_time > $3::text::time`

type TimeslotRepository interface {
	Create(ctx context.Context, slot *entity.Timeslot) error
	FindByID(ctx context.Context, id int64) (*entity.Timeslot, error)
	UpdateStatus(ctx context.Context, ids []int64, status entity.TimeslotStatus) (int64, error)
	Delete(ctx context.Context, ids []int64) (int64, error)

	// Overlap and blocking
	FindActiveOverlapping(ctx context.Context, roomID int64, dates []time.Time, start, end dateutil.TimeOfDay) ([]entity.Occupancy, error)
	DeleteBlocked(ctx context.Context, id int64) (*entity.Timeslot, error)
	LockRoom(ctx context.Context, roomID int64) error
}

type timeslotRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewTimeslotRepository(db database.DBTX, log *zap.Logger) TimeslotRepository {
	return &timeslotRepository{
		db:  db,
		log: log.With(zap.String("repository", "timeslot")),
	}
}

func (r *timeslotRepository) Create(ctx context.Context, slot *entity.Timeslot) error {
	query := `
		INSERT INTO timeslots (room_id, slot_date, start_time, end_time, status, blocked_reason, created_at, updated_at)
		VALUES ($1, $2, $3::text::time, $4::text::time, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		slot.RoomID,
		slot.SlotDate,
		slot.StartTime.SQL(),
		slot.EndTime.SQL(),
		int16(slot.Status),
		slot.BlockedReason,
		slot.CreatedAt,
		slot.UpdatedAt,
	).Scan(&slot.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			r.log.Warn("Timeslot rejected by overlap constraint",
				zap.Int64("room_id", slot.RoomID),
				zap.String("slot_date", dateutil.FormatDate(slot.SlotDate)),
				zap.String("range", slot.Range()),
			)
			return ErrSlotTaken
		}
		r.log.Error("Failed to create timeslot",
			zap.Error(err),
			zap.Int64("room_id", slot.RoomID),
			zap.String("slot_date", dateutil.FormatDate(slot.SlotDate)),
		)
		return fmt.Errorf("create timeslot for room %d on %s: %w", slot.RoomID, dateutil.FormatDate(slot.SlotDate), err)
	}

	return nil
}

func (r *timeslotRepository) FindByID(ctx context.Context, id int64) (*entity.Timeslot, error) {
	query := `SELECT ` + timeslotColumns + ` FROM timeslots t WHERE t.id = $1`

	slot, err := scanTimeslot(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find timeslot by ID", zap.Error(err), zap.Int64("timeslot_id", id))
		return nil, fmt.Errorf("find timeslot by ID %d: %w", id, err)
	}

	return slot, nil
}

func (r *timeslotRepository) UpdateStatus(ctx context.Context, ids []int64, status entity.TimeslotStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `UPDATE timeslots SET status = $2, updated_at = NOW() WHERE id = ANY($1::bigint[])`

	result, err := r.db.Exec(ctx, query, ids, int16(status))
	if err != nil {
		r.log.Error("Failed to update timeslot status",
			zap.Error(err),
			zap.Int64s("timeslot_ids", ids),
			zap.String("status", status.String()),
		)
		return 0, fmt.Errorf("update %d timeslots to %s: %w", len(ids), status, err)
	}

	return result.RowsAffected(), nil
}

func (r *timeslotRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM timeslots WHERE id = ANY($1::bigint[])`

	result, err := r.db.Exec(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to delete timeslots", zap.Error(err), zap.Int64s("timeslot_ids", ids))
		return 0, fmt.Errorf("delete %d timeslots: %w", len(ids), err)
	}

	return result.RowsAffected(), nil
}

func (r *timeslotRepository) FindActiveOverlapping(ctx context.Context, roomID int64, dates []time.Time, start, end dateutil.TimeOfDay) ([]entity.Occupancy, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + timeslotColumns + `, b.reason
		FROM timeslots t
		LEFT JOIN bookings b ON b.timeslot_id = t.id
		WHERE t.room_id = $1
		  AND t.slot_date = ANY($2::date[])
		  AND t.status = ANY($5::smallint[])
		  AND ` + overlapPredicate + `
		ORDER BY t.slot_date, t.start_time
	`

	active := []entity.TimeslotStatus{entity.TimeslotBooked, entity.TimeslotBlocked}

	rows, err := r.db.Query(ctx, query, roomID, dates, start.SQL(), end.SQL(), toInt16s(active))
	if err != nil {
		r.log.Error("Failed to query overlapping timeslots",
			zap.Error(err),
			zap.Int64("room_id", roomID),
			zap.Int("dates", len(dates)),
			zap.String("range", dateutil.FormatRange(start, end)),
		)
		return nil, fmt.Errorf("find overlapping timeslots in room %d: %w", roomID, err)
	}
	defer rows.Close()

	var hits []entity.Occupancy
	for rows.Next() {
		var ts timeslotScan
		var reason *string
		if err := rows.Scan(append(ts.dest(), &reason)...); err != nil {
			r.log.Error("Failed to scan timeslot row", zap.Error(err))
			return nil, fmt.Errorf("scan timeslot row: %w", err)
		}
		slot, err := ts.result()
		if err != nil {
			return nil, err
		}
		hits = append(hits, entity.Occupancy{Timeslot: slot, BookingReason: reason})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overlapping timeslots: %w", err)
	}

	return hits, nil
}

// DeleteBlocked removes a timeslot only while it is BLOCKED. It returns nil when no such
// slot exists.
func (r *timeslotRepository) DeleteBlocked(ctx context.Context, id int64) (*entity.Timeslot, error) {
	query := `
		DELETE FROM timeslots t
		WHERE t.id = $1 AND t.status = $2
		RETURNING ` + timeslotColumns

	slot, err := scanTimeslot(r.db.QueryRow(ctx, query, id, int16(entity.TimeslotBlocked)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to delete blocked timeslot", zap.Error(err), zap.Int64("timeslot_id", id))
		return nil, fmt.Errorf("delete blocked timeslot %d: %w", id, err)
	}

	r.log.Info("Blocked timeslot deleted", zap.Int64("timeslot_id", id))
	return slot, nil
}

// LockRoom takes a transaction-scoped advisory lock so writers on one room serialize.
func (r *timeslotRepository) LockRoom(ctx context.Context, roomID int64) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, roomID); err != nil {
		r.log.Error("Failed to lock room", zap.Error(err), zap.Int64("room_id", roomID))
		return fmt.Errorf("lock room %d: %w", roomID, err)
	}
	return nil
}
