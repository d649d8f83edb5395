package usecase

import (
	"context"
	"errors"
	"strings"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/data/repository"
	"room-reservation/internal/dto/request"
	"room-reservation/internal/dto/response"
	"room-reservation/pkg/utils"

	"go.uber.org/zap"
)

type RoomService interface {
	ListRooms(ctx context.Context, actor Actor) ([]response.RoomResponse, error)
	GetRoom(ctx context.Context, actor Actor, id int64) (*response.RoomResponse, error)

	// Admin
	CreateRoom(ctx context.Context, actor Actor, req *request.CreateRoomRequest) (*response.RoomResponse, error)
	DeleteRoom(ctx context.Context, actor Actor, id int64) error
}

type roomService struct {
	core
}

func NewRoomService(c core, log *zap.Logger) RoomService {
	return &roomService{core: c.named(log, "room")}
}

func (s *roomService) ListRooms(ctx context.Context, actor Actor) ([]response.RoomResponse, error) {
	rooms, err := s.repo.Room.FindAll(ctx, actor.IsAdmin())
	if err != nil {
		return nil, err
	}

	out := make([]response.RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomResponse(r))
	}
	return out, nil
}

func (s *roomService) GetRoom(ctx context.Context, actor Actor, id int64) (*response.RoomResponse, error) {
	room, err := s.findRoom(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := toRoomResponse(room)
	return &resp, nil
}

func (s *roomService) CreateRoom(ctx context.Context, actor Actor, req *request.CreateRoomRequest) (*response.RoomResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create room validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidField("name", "name is required")
	}

	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}

	now := s.now()
	room := &entity.Room{
		Base:        entity.Base{CreatedAt: now, UpdatedAt: now},
		Name:        name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Floor:       req.Floor,
		Building:    req.Building,
		IsVisible:   visible,
		ImageURL:    req.ImageURL,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Room.Create(ctx, room); err != nil {
		return nil, err
	}

	s.log.Info("Room created", zap.Int64("room_id", room.ID), zap.String("name", room.Name))
	resp := toRoomResponse(room)
	return &resp, nil
}

// DeleteRoom removes a room with all of its timeslots, bookings and the series they
// belonged to.
func (s *roomService) DeleteRoom(ctx context.Context, actor Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		patternIDs, err := tx.Pattern.FindIDsByRoom(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Room.Delete(ctx, id); err != nil {
			return err
		}

		// Bookings cascade with the room; their series rows do not.
		for _, pid := range patternIDs {
			left, err := tx.Booking.CountByPattern(ctx, pid)
			if err != nil {
				return err
			}
			if left > 0 {
				continue
			}
			if err := tx.Pattern.Delete(ctx, pid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "room", ID: id}
		}
		return err
	}

	s.log.Info("Room deleted", zap.Int64("room_id", id), zap.Int64("admin_id", actor.UserID))
	s.invalidate(ctx, id)
	return nil
}
