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

type PatternRepository interface {
	Create(ctx context.Context, pattern *entity.RecurringPattern) error
	FindByID(ctx context.Context, id int64) (*entity.RecurringPattern, error)
	UpdateEndDate(ctx context.Context, id int64, endDate time.Time) error
	Delete(ctx context.Context, id int64) error

	// FindIDsByRoom lists the series that have at least one booking in the room.
	FindIDsByRoom(ctx context.Context, roomID int64) ([]int64, error)
}

type patternRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewPatternRepository(db database.DBTX, log *zap.Logger) PatternRepository {
	return &patternRepository{
		db:  db,
		log: log.With(zap.String("repository", "pattern")),
	}
}

func (r *patternRepository) Create(ctx context.Context, pattern *entity.RecurringPattern) error {
	query := `
		INSERT INTO recurring_patterns (frequency, start_date, end_date, until_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		string(pattern.Frequency),
		pattern.StartDate,
		pattern.EndDate,
		pattern.UntilDate,
		pattern.CreatedAt,
	).Scan(&pattern.ID)

	if err != nil {
		r.log.Error("Failed to create recurring pattern",
			zap.Error(err),
			zap.String("frequency", string(pattern.Frequency)),
			zap.String("start_date", dateutil.FormatDate(pattern.StartDate)),
		)
		return fmt.Errorf("create recurring pattern: %w", err)
	}

	return nil
}

func (r *patternRepository) FindByID(ctx context.Context, id int64) (*entity.RecurringPattern, error) {
	query := `
		SELECT id, frequency, start_date, end_date, until_date, created_at
		FROM recurring_patterns
		WHERE id = $1
	`

	var pattern entity.RecurringPattern
	var frequency string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&pattern.ID,
		&frequency,
		&pattern.StartDate,
		&pattern.EndDate,
		&pattern.UntilDate,
		&pattern.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find recurring pattern", zap.Error(err), zap.Int64("pattern_id", id))
		return nil, fmt.Errorf("find recurring pattern %d: %w", id, err)
	}

	pattern.Frequency, err = dateutil.ParseFrequency(frequency)
	if err != nil {
		return nil, fmt.Errorf("recurring pattern %d: %w", id, err)
	}
	pattern.StartDate = dateutil.DateOf(pattern.StartDate)
	pattern.EndDate = dateutil.DateOf(pattern.EndDate)
	pattern.UntilDate = dateutil.DateOf(pattern.UntilDate)

	return &pattern, nil
}

// UpdateEndDate moves both the requested and the effective end of a series.
func (r *patternRepository) UpdateEndDate(ctx context.Context, id int64, endDate time.Time) error {
	query := `UPDATE recurring_patterns SET end_date = $2, until_date = $2 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, endDate)
	if err != nil {
		r.log.Error("Failed to update recurring pattern end date",
			zap.Error(err),
			zap.Int64("pattern_id", id),
			zap.String("end_date", dateutil.FormatDate(endDate)),
		)
		return fmt.Errorf("update end date of pattern %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pattern %d: %w", id, ErrNotFound)
	}

	return nil
}

func (r *patternRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM recurring_patterns WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		r.log.Error("Failed to delete recurring pattern", zap.Error(err), zap.Int64("pattern_id", id))
		return fmt.Errorf("delete pattern %d: %w", id, err)
	}

	r.log.Info("Recurring pattern deleted", zap.Int64("pattern_id", id))
	return nil
}

func (r *patternRepository) FindIDsByRoom(ctx context.Context, roomID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT b.pattern_id
		FROM bookings b
		JOIN timeslots t ON t.id = b.timeslot_id
		WHERE t.room_id = $1 AND b.pattern_id IS NOT NULL
		ORDER BY b.pattern_id
	`

	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		r.log.Error("Failed to list room patterns", zap.Error(err), zap.Int64("room_id", roomID))
		return nil, fmt.Errorf("list patterns of room %d: %w", roomID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pattern id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list patterns of room %d: %w", roomID, err)
	}

	return ids, nil
}
