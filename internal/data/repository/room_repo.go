package repository

import (
	"context"
	"errors"
	"fmt"

	"room-reservation/internal/data/entity"
	"room-reservation/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	FindByID(ctx context.Context, id int64) (*entity.Room, error)
	FindAll(ctx context.Context, includeHidden bool) ([]*entity.Room, error)
	Delete(ctx context.Context, id int64) error
}

type roomRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewRoomRepository(db database.DBTX, log *zap.Logger) RoomRepository {
	return &roomRepository{
		db:  db,
		log: log.With(zap.String("repository", "room")),
	}
}

const roomColumns = `id, name, description, capacity, floor, building, is_visible, image_url, created_by, created_at, updated_at`

func scanRoom(row scanner) (*entity.Room, error) {
	var room entity.Room
	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&room.Capacity,
		&room.Floor,
		&room.Building,
		&room.IsVisible,
		&room.ImageURL,
		&room.CreatedBy,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) Create(ctx context.Context, room *entity.Room) error {
	query := `
		INSERT INTO rooms (name, description, capacity, floor, building, is_visible, image_url, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		room.Name,
		room.Description,
		room.Capacity,
		room.Floor,
		room.Building,
		room.IsVisible,
		room.ImageURL,
		room.CreatedBy,
		room.CreatedAt,
		room.UpdatedAt,
	).Scan(&room.ID)

	if err != nil {
		r.log.Error("Failed to create room", zap.Error(err), zap.String("name", room.Name))
		return fmt.Errorf("create room %s: %w", room.Name, err)
	}

	return nil
}

func (r *roomRepository) FindByID(ctx context.Context, id int64) (*entity.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find room by ID", zap.Error(err), zap.Int64("room_id", id))
		return nil, fmt.Errorf("find room by ID %d: %w", id, err)
	}

	return room, nil
}

func (r *roomRepository) FindAll(ctx context.Context, includeHidden bool) ([]*entity.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE is_visible OR $1 ORDER BY name, id`

	rows, err := r.db.Query(ctx, query, includeHidden)
	if err != nil {
		r.log.Error("Failed to list rooms", zap.Error(err))
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*entity.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			r.log.Error("Failed to scan room row", zap.Error(err))
			return nil, fmt.Errorf("scan room row: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	return rooms, nil
}

// Delete removes a room; its timeslots and bookings go with it through ON DELETE CASCADE.
func (r *roomRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM rooms WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete room", zap.Error(err), zap.Int64("room_id", id))
		return fmt.Errorf("delete room %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %d: %w", id, ErrNotFound)
	}

	r.log.Info("Room deleted", zap.Int64("room_id", id))
	return nil
}
