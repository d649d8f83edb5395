package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/data/repository"
	"room-reservation/internal/dto/request"
	"room-reservation/internal/dto/response"
	"room-reservation/pkg/dateutil"
	"room-reservation/pkg/utils"

	"go.uber.org/zap"
)

type BookingService interface {
	// CreateBooking books one slot, or every weekday occurrence of a recurring request.
	// A recurring request is all-or-nothing.
	CreateBooking(ctx context.Context, actor Actor, req *request.CreateBookingRequest) (*response.BookingResult, error)
}

type bookingService struct {
	core
}

func NewBookingService(c core, log *zap.Logger) BookingService {
	return &bookingService{core: c.named(log, "booking")}
}

// seriesPlan is an expanded recurring request.
type seriesPlan struct {
	frequency dateutil.Frequency
	endDate   time.Time
	untilDate time.Time
	dates     []time.Time
}

func (s *bookingService) CreateBooking(ctx context.Context, actor Actor, req *request.CreateBookingRequest) (*response.BookingResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, invalidField("reason", "reason is required")
	}

	slot, err := s.parseSlot(req.RoomID, req.SlotDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	requesterID := actor.UserID
	if req.UserID != 0 && req.UserID != actor.UserID {
		if !actor.IsAdmin() {
			return nil, &ForbiddenError{Message: "Only admins can book on behalf of another user"}
		}
		requesterID = req.UserID
	}

	var plan *seriesPlan
	if req.IsRecurring {
		if plan, err = s.planSeries(slot, req.Frequency, req.UntilDate); err != nil {
			return nil, err
		}
	}

	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	if _, err := s.findRoom(ctx, actor, slot.roomID); err != nil {
		return nil, err
	}

	if requesterID != actor.UserID {
		user, err := s.repo.User.FindByID(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, &NotFoundError{Resource: "user", ID: requesterID}
		}
	}

	if err := s.ensureFuture(slot, "Cannot book in the past"); err != nil {
		s.log.Warn("Rejected past booking",
			zap.Int64("room_id", slot.roomID),
			zap.String("slot_date", dateutil.FormatDate(slot.date)),
			zap.String("range", slot.rangeString()),
		)
		return nil, err
	}

	status := entity.BookingPending
	if actor.IsAdmin() {
		status = entity.BookingConfirmed
	}

	template := entity.Booking{
		UserID: requesterID,
		Reason: reason,
		Status: status,
	}

	var result *response.BookingResult
	if plan == nil {
		result, err = s.createSingle(ctx, slot, template)
	} else {
		result, err = s.createSeries(ctx, slot, plan, template)
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, slot.roomID)
	return result, nil
}

func (s *bookingService) planSeries(slot slotSpec, frequency, until string) (*seriesPlan, error) {
	if strings.TrimSpace(until) == "" {
		return nil, invalidField("until_date", "until_date is required for recurring bookings")
	}
	endDate, err := dateutil.ParseDate(until)
	if err != nil {
		return nil, invalidField("until_date", "until_date must be a date in YYYY-MM-DD format")
	}
	if endDate.Before(slot.date) {
		return nil, invalidField("until_date", "until_date must not be before slot_date")
	}

	freq := dateutil.FrequencyWeekly
	if strings.TrimSpace(frequency) != "" {
		if freq, err = dateutil.ParseFrequency(frequency); err != nil {
			return nil, invalidField("frequency", "frequency must be one of: daily, weekly")
		}
	}

	today := s.today()
	years := s.policy.MaxRecurrenceYears
	dates := dateutil.GenerateOccurrences(slot.date, endDate, freq, years, today)
	if len(dates) == 0 {
		return nil, invalidField("until_date", "No weekday occurrences between slot_date and until_date")
	}

	return &seriesPlan{
		frequency: freq,
		endDate:   endDate,
		untilDate: dateutil.EffectiveUntil(endDate, today, years),
		dates:     dates,
	}, nil
}

func (s *bookingService) createSingle(ctx context.Context, slot slotSpec, template entity.Booking) (*response.BookingResult, error) {
	now := s.now()
	var created response.BookingCreated

	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
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

		booking, ts, err := insertBooking(ctx, tx, slot, slot.date, template, nil, now)
		if err != nil {
			return err
		}
		created = bookingCreated(booking, ts)
		return nil
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			s.log.Warn("Booking conflicts with an active slot",
				zap.Int64("room_id", slot.roomID),
				zap.String("slot_date", dateutil.FormatDate(slot.date)),
				zap.String("range", slot.rangeString()),
				zap.String("collides_with", conflict.Range),
			)
		}
		return nil, slotTaken(err, slot)
	}

	s.log.Info("Booking created",
		zap.Int64("booking_id", created.BookingID),
		zap.Int64("timeslot_id", created.TimeslotID),
		zap.Int64("user_id", template.UserID),
		zap.Int64("room_id", slot.roomID),
		zap.String("status", created.BookingStatus),
	)
	return &response.BookingResult{BookingCreated: &created}, nil
}

func (s *bookingService) createSeries(ctx context.Context, slot slotSpec, plan *seriesPlan, template entity.Booking) (*response.BookingResult, error) {
	now := s.now()
	series := response.SeriesCreated{
		Frequency: string(plan.frequency),
		EndDate:   dateutil.FormatDate(plan.endDate),
		UntilDate: dateutil.FormatDate(plan.untilDate),
		Bookings:  make([]response.BookingCreated, 0, len(plan.dates)),
	}

	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Timeslot.LockRoom(ctx, slot.roomID); err != nil {
			return err
		}

		// Every occurrence is checked before anything is written.
		hits, err := s.overlap.Conflicts(ctx, tx.Timeslot, slot.roomID, plan.dates, slot.start, slot.end)
		if err != nil {
			return err
		}
		if len(hits) > 0 {
			return seriesConflict(conflictDates(hits))
		}

		pattern := &entity.RecurringPattern{
			BaseSimple: entity.BaseSimple{CreatedAt: now},
			Frequency:  plan.frequency,
			StartDate:  slot.date,
			EndDate:    plan.endDate,
			UntilDate:  plan.untilDate,
		}
		if err := tx.Pattern.Create(ctx, pattern); err != nil {
			return err
		}
		series.PatternID = pattern.ID

		for _, date := range plan.dates {
			booking, ts, err := insertBooking(ctx, tx, slot, date, template, &pattern.ID, now)
			if err != nil {
				return err
			}
			series.Bookings = append(series.Bookings, bookingCreated(booking, ts))
		}
		return nil
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			s.log.Warn("Recurring booking conflicts with active slots",
				zap.Int64("room_id", slot.roomID),
				zap.Int("occurrences", len(plan.dates)),
				zap.Strings("dates", conflict.Dates),
				zap.Int("more", conflict.Remaining),
			)
		}
		return nil, slotTaken(err, slot)
	}

	series.BookingsCount = len(series.Bookings)
	s.log.Info("Recurring booking created",
		zap.Int64("pattern_id", series.PatternID),
		zap.Int("bookings", series.BookingsCount),
		zap.Int64("user_id", template.UserID),
		zap.Int64("room_id", slot.roomID),
		zap.String("frequency", series.Frequency),
		zap.String("until_date", series.UntilDate),
	)
	return &response.BookingResult{SeriesCreated: &series}, nil
}

// insertBooking writes one BOOKED timeslot and its booking.
func insertBooking(ctx context.Context, tx *repository.Repository, slot slotSpec, date time.Time, template entity.Booking, patternID *int64, now time.Time) (*entity.Booking, *entity.Timeslot, error) {
	ts := &entity.Timeslot{
		Base:      entity.Base{CreatedAt: now, UpdatedAt: now},
		RoomID:    slot.roomID,
		SlotDate:  date,
		StartTime: slot.start,
		EndTime:   slot.end,
		Status:    entity.TimeslotBooked,
	}
	if err := tx.Timeslot.Create(ctx, ts); err != nil {
		return nil, nil, err
	}

	booking := template
	booking.Base = entity.Base{CreatedAt: now, UpdatedAt: now}
	booking.TimeslotID = ts.ID
	booking.IsRecurring = patternID != nil
	booking.PatternID = patternID
	if err := tx.Booking.Create(ctx, &booking); err != nil {
		return nil, nil, err
	}

	return &booking, ts, nil
}
