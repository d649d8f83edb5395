package usecase

import (
	"context"
	"errors"
	"strings"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/data/repository"
	"room-reservation/internal/dto/request"
	"room-reservation/internal/dto/response"
	"room-reservation/pkg/dateutil"
	"room-reservation/pkg/utils"

	"go.uber.org/zap"
)

// BlockService lets admins take room-time out of circulation without a booking.
type BlockService interface {
	BlockSlot(ctx context.Context, actor Actor, req *request.BlockSlotRequest) (*response.TimeslotResult, error)
	// UnblockSlot deletes a BLOCKED timeslot. Booked slots are not released here.
	UnblockSlot(ctx context.Context, actor Actor, timeslotID int64) (*response.TimeslotResult, error)
}

type blockService struct {
	core
}

func NewBlockService(c core, log *zap.Logger) BlockService {
	return &blockService{core: c.named(log, "block")}
}

func (s *blockService) BlockSlot(ctx context.Context, actor Actor, req *request.BlockSlotRequest) (*response.TimeslotResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Block slot validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	slot, err := s.parseSlot(req.RoomID, req.SlotDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	var reason *string
	if req.Reason != nil {
		if r := strings.TrimSpace(*req.Reason); r != "" {
			reason = &r
		}
	}

	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}
	if _, err := s.findRoom(ctx, actor, slot.roomID); err != nil {
		return nil, err
	}
	if err := s.ensureFuture(slot, "Cannot block a slot in the past"); err != nil {
		return nil, err
	}

	now := s.now()
	ts := &entity.Timeslot{
		Base:          entity.Base{CreatedAt: now, UpdatedAt: now},
		RoomID:        slot.roomID,
		SlotDate:      slot.date,
		StartTime:     slot.start,
		EndTime:       slot.end,
		Status:        entity.TimeslotBlocked,
		BlockedReason: reason,
	}

	err = s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Timeslot.LockRoom(ctx, slot.roomID); err != nil {
			return err
		}
		hit, err := s.overlap.HasOverlap(ctx, tx.Timeslot, slot.roomID, slot.date, slot.start, slot.end)
		if err != nil {
			return err
		}
		if hit != nil {
			return slotConflict(*hit)
		}
		return tx.Timeslot.Create(ctx, ts)
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			s.log.Warn("Block conflicts with an active slot",
				zap.Int64("room_id", slot.roomID),
				zap.String("slot_date", dateutil.FormatDate(slot.date)),
				zap.String("range", slot.rangeString()),
			)
		}
		return nil, slotTaken(err, slot)
	}

	s.log.Info("Slot blocked",
		zap.Int64("timeslot_id", ts.ID),
		zap.Int64("room_id", ts.RoomID),
		zap.String("slot_date", dateutil.FormatDate(ts.SlotDate)),
		zap.String("range", ts.Range()),
		zap.Int64("admin_id", actor.UserID),
	)

	s.invalidate(ctx, ts.RoomID)
	return toTimeslotResult(ts), nil
}

func (s *blockService) UnblockSlot(ctx context.Context, actor Actor, timeslotID int64) (*response.TimeslotResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if timeslotID <= 0 {
		return nil, invalidField("timeslot_id", "timeslot_id is required")
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	ts, err := s.repo.Timeslot.DeleteBlocked(ctx, timeslotID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, &NotFoundError{Resource: "blocked timeslot", ID: timeslotID}
	}

	s.log.Info("Slot unblocked",
		zap.Int64("timeslot_id", ts.ID),
		zap.Int64("room_id", ts.RoomID),
		zap.Int64("admin_id", actor.UserID),
	)

	s.invalidate(ctx, ts.RoomID)
	return toTimeslotResult(ts), nil
}
