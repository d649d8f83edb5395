package usecase

import (
	"context"
	"fmt"
	"sort"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/data/repository"
	"room-reservation/internal/dto/response"
	"room-reservation/internal/notify"
	"room-reservation/pkg/dateutil"

	"go.uber.org/zap"
)

// Target names what an approval operation applies to: one booking, an explicit list of
// bookings, or every booking of a recurring pattern. Exactly one member is set.
type Target struct {
	BookingID  int64
	BookingIDs []int64
	PatternID  int64
}

func (t Target) validate() error {
	set := 0
	if t.BookingID != 0 {
		set++
	}
	if len(t.BookingIDs) > 0 {
		set++
	}
	if t.PatternID != 0 {
		set++
	}
	if set != 1 {
		return invalidField("target", "Exactly one of booking_id, booking_ids or pattern_id is required")
	}
	if t.BookingID < 0 || t.PatternID < 0 {
		return invalidField("target", "Identifiers must be positive")
	}
	for _, id := range t.BookingIDs {
		if id <= 0 {
			return invalidField("booking_ids", "Identifiers must be positive")
		}
	}
	return nil
}

func (t Target) patternRef() *int64 {
	if t.PatternID == 0 {
		return nil
	}
	id := t.PatternID
	return &id
}

type ApprovalService interface {
	// Accept confirms every pending booking of the target.
	Accept(ctx context.Context, actor Actor, target Target) (*response.ApprovalResult, error)
	// Reject deletes the target's bookings and their timeslots, and the pattern when the
	// target is a pattern.
	Reject(ctx context.Context, actor Actor, target Target) (*response.ApprovalResult, error)
	// UpdateSeriesEndDate shortens a series, deleting occurrences after endDate.
	UpdateSeriesEndDate(ctx context.Context, actor Actor, patternID int64, endDate string) (*response.ApprovalResult, error)
	// Cancel deletes bookings on behalf of their owner or an admin.
	Cancel(ctx context.Context, actor Actor, target Target) (*response.ApprovalResult, error)
}

type approvalService struct {
	core
}

func NewApprovalService(c core, log *zap.Logger) ApprovalService {
	return &approvalService{core: c.named(log, "approval")}
}

// scope is a loaded target, bookings ordered by slot date and start time.
type scope struct {
	target   Target
	pattern  *entity.RecurringPattern
	bookings []*entity.BookingSlot
}

func (sc *scope) pending() []*entity.BookingSlot {
	var out []*entity.BookingSlot
	for _, bs := range sc.bookings {
		switch bs.Booking.Status {
		case entity.BookingPending:
			out = append(out, bs)
		case entity.BookingConfirmed, entity.BookingDeclined:
		}
	}
	return out
}

func loadScope(ctx context.Context, repo *repository.Repository, target Target) (*scope, error) {
	sc := &scope{target: target}

	switch {
	case target.BookingID != 0:
		bs, err := repo.Booking.FindWithSlot(ctx, target.BookingID)
		if err != nil {
			return nil, err
		}
		if bs == nil {
			return nil, &NotFoundError{Resource: "booking", ID: target.BookingID}
		}
		sc.bookings = []*entity.BookingSlot{bs}

	case len(target.BookingIDs) > 0:
		ids := uniqueIDs(target.BookingIDs)
		found, err := repo.Booking.FindWithSlots(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(found) != len(ids) {
			have := make(map[int64]struct{}, len(found))
			for _, bs := range found {
				have[bs.Booking.ID] = struct{}{}
			}
			for _, id := range ids {
				if _, ok := have[id]; !ok {
					return nil, &NotFoundError{Resource: "booking", ID: id}
				}
			}
		}
		sc.bookings = found

	default:
		pattern, err := repo.Pattern.FindByID(ctx, target.PatternID)
		if err != nil {
			return nil, err
		}
		if pattern == nil {
			return nil, &NotFoundError{Resource: "recurring pattern", ID: target.PatternID}
		}
		bookings, err := repo.Booking.FindByPattern(ctx, target.PatternID)
		if err != nil {
			return nil, err
		}
		sc.pattern = pattern
		sc.bookings = bookings
	}

	sortBookingSlots(sc.bookings)
	return sc, nil
}

func (s *approvalService) Accept(ctx context.Context, actor Actor, target Target) (*response.ApprovalResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	var accepted []*entity.BookingSlot

	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		sc, err := loadScope(ctx, tx, target)
		if err != nil {
			return err
		}

		pending := sc.pending()
		if len(pending) == 0 {
			if len(sc.bookings) > 0 && !sc.bookings[0].Timeslot.StartsAt(s.loc).After(now) {
				return &PastDateError{Message: "Cannot accept past bookings"}
			}
			if target.BookingID != 0 {
				return &StateError{Message: fmt.Sprintf("Booking %d is already %s", target.BookingID, sc.bookings[0].Booking.Status)}
			}
			return &StateError{Message: "No pending bookings to accept"}
		}

		if !pending[0].Timeslot.StartsAt(s.loc).After(now) {
			return &PastDateError{Message: "Cannot accept past bookings"}
		}

		bookingIDs, slotIDs := idsOf(pending)
		if _, err := tx.Booking.UpdateStatus(ctx, bookingIDs, entity.BookingConfirmed); err != nil {
			return err
		}
		if _, err := tx.Timeslot.UpdateStatus(ctx, slotIDs, entity.TimeslotBooked); err != nil {
			return err
		}

		accepted = pending
		return nil
	})
	if err != nil {
		return nil, err
	}

	bookingIDs, _ := idsOf(accepted)
	s.log.Info("Bookings accepted",
		zap.Int64s("booking_ids", bookingIDs),
		zap.Int64("pattern_id", target.PatternID),
		zap.Int64("admin_id", actor.UserID),
	)

	s.invalidate(ctx, roomsOf(accepted)...)
	s.notify(ctx, s.decisionEvents(ctx, notify.EventBookingAccepted, accepted, target.patternRef(), 0))

	return &response.ApprovalResult{
		Action:     "accept",
		Affected:   len(accepted),
		BookingIDs: bookingIDs,
		PatternID:  target.patternRef(),
	}, nil
}

func (s *approvalService) Reject(ctx context.Context, actor Actor, target Target) (*response.ApprovalResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	var removed []*entity.BookingSlot
	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		sc, err := loadScope(ctx, tx, target)
		if err != nil {
			return err
		}
		if sc.pattern != nil && len(sc.pending()) == 0 {
			return &StateError{Message: "Series has no pending bookings to reject"}
		}

		removed = sc.bookings
		return s.remove(ctx, tx, sc)
	})
	if err != nil {
		return nil, err
	}

	bookingIDs, _ := idsOf(removed)
	s.log.Info("Bookings rejected",
		zap.Int64s("booking_ids", bookingIDs),
		zap.Int64("pattern_id", target.PatternID),
		zap.Int64("admin_id", actor.UserID),
	)

	s.invalidate(ctx, roomsOf(removed)...)
	s.notify(ctx, s.decisionEvents(ctx, notify.EventBookingRejected, removed, target.patternRef(), 0))

	return &response.ApprovalResult{
		Action:     "reject",
		Affected:   len(removed),
		BookingIDs: bookingIDs,
		PatternID:  target.patternRef(),
	}, nil
}

func (s *approvalService) Cancel(ctx context.Context, actor Actor, target Target) (*response.ApprovalResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	var removed []*entity.BookingSlot
	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		sc, err := loadScope(ctx, tx, target)
		if err != nil {
			return err
		}
		if err := authorizeOwner(actor, sc); err != nil {
			return err
		}

		removed = sc.bookings
		return s.remove(ctx, tx, sc)
	})
	if err != nil {
		return nil, err
	}

	bookingIDs, _ := idsOf(removed)
	s.log.Info("Bookings cancelled",
		zap.Int64s("booking_ids", bookingIDs),
		zap.Int64("pattern_id", target.PatternID),
		zap.Int64("actor_id", actor.UserID),
	)

	s.invalidate(ctx, roomsOf(removed)...)
	// Requesters cancelling their own bookings are not told about it.
	s.notify(ctx, s.decisionEvents(ctx, notify.EventBookingRejected, removed, target.patternRef(), actor.UserID))

	return &response.ApprovalResult{
		Action:     "delete",
		Affected:   len(removed),
		BookingIDs: bookingIDs,
		PatternID:  target.patternRef(),
	}, nil
}

func (s *approvalService) UpdateSeriesEndDate(ctx context.Context, actor Actor, patternID int64, endDate string) (*response.ApprovalResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if patternID <= 0 {
		return nil, invalidField("pattern_id", "pattern_id is required")
	}
	if endDate == "" {
		return nil, invalidField("end_date", "end_date is required")
	}
	newEnd, err := dateutil.ParseDate(endDate)
	if err != nil {
		return nil, invalidField("end_date", "end_date must be a date in YYYY-MM-DD format")
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	var dropped []*entity.BookingSlot
	err = s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		sc, err := loadScope(ctx, tx, Target{PatternID: patternID})
		if err != nil {
			return err
		}
		if err := authorizeOwner(actor, sc); err != nil {
			return err
		}

		pattern := sc.pattern
		if newEnd.Before(pattern.StartDate) {
			return invalidField("end_date", fmt.Sprintf("end_date must not be before the series start %s",
				dateutil.FormatDate(pattern.StartDate)))
		}
		if newEnd.After(pattern.UntilDate) {
			return invalidField("end_date", fmt.Sprintf("end_date can only shorten the series, which ends %s",
				dateutil.FormatDate(pattern.UntilDate)))
		}

		for _, bs := range sc.bookings {
			if bs.Timeslot.SlotDate.After(newEnd) {
				dropped = append(dropped, bs)
			}
		}

		if len(dropped) > 0 {
			bookingIDs, slotIDs := idsOf(dropped)
			if _, err := tx.Booking.Delete(ctx, bookingIDs); err != nil {
				return err
			}
			if _, err := tx.Timeslot.Delete(ctx, slotIDs); err != nil {
				return err
			}
		}

		if len(dropped) == len(sc.bookings) {
			return tx.Pattern.Delete(ctx, pattern.ID)
		}
		return tx.Pattern.UpdateEndDate(ctx, pattern.ID, newEnd)
	})
	if err != nil {
		return nil, err
	}

	bookingIDs, _ := idsOf(dropped)
	s.log.Info("Series end date updated",
		zap.Int64("pattern_id", patternID),
		zap.String("end_date", dateutil.FormatDate(newEnd)),
		zap.Int("deleted", len(dropped)),
		zap.Int64("actor_id", actor.UserID),
	)

	if len(dropped) > 0 {
		s.invalidate(ctx, roomsOf(dropped)...)
	}

	formatted := dateutil.FormatDate(newEnd)
	return &response.ApprovalResult{
		Action:     "update_end_date",
		Affected:   len(dropped),
		BookingIDs: bookingIDs,
		PatternID:  &patternID,
		EndDate:    &formatted,
	}, nil
}

// remove deletes the bookings of sc with their timeslots, then the pattern: always when
// the target is a pattern, otherwise once its last booking is gone.
func (s *approvalService) remove(ctx context.Context, tx *repository.Repository, sc *scope) error {
	if len(sc.bookings) > 0 {
		bookingIDs, slotIDs := idsOf(sc.bookings)
		if _, err := tx.Booking.Delete(ctx, bookingIDs); err != nil {
			return err
		}
		if _, err := tx.Timeslot.Delete(ctx, slotIDs); err != nil {
			return err
		}
	}

	if sc.pattern != nil {
		return tx.Pattern.Delete(ctx, sc.pattern.ID)
	}

	for _, patternID := range patternsOf(sc.bookings) {
		left, err := tx.Booking.CountByPattern(ctx, patternID)
		if err != nil {
			return err
		}
		if left > 0 {
			continue
		}
		if err := tx.Pattern.Delete(ctx, patternID); err != nil {
			return err
		}
		s.log.Debug("Removed emptied recurring pattern", zap.Int64("pattern_id", patternID))
	}
	return nil
}

// authorizeOwner allows admins, and owners of every booking in scope. A pattern with no
// bookings left has no owner and is admin-only.
func authorizeOwner(actor Actor, sc *scope) error {
	if actor.IsAdmin() {
		return nil
	}
	if len(sc.bookings) == 0 {
		return &ForbiddenError{Message: "Admin access required"}
	}
	for _, bs := range sc.bookings {
		if !actor.CanManage(bs.Booking.UserID) {
			return &ForbiddenError{Message: "You can only modify your own bookings"}
		}
	}
	return nil
}

func idsOf(bookings []*entity.BookingSlot) (bookingIDs, slotIDs []int64) {
	bookingIDs = make([]int64, 0, len(bookings))
	slotIDs = make([]int64, 0, len(bookings))
	for _, bs := range bookings {
		bookingIDs = append(bookingIDs, bs.Booking.ID)
		slotIDs = append(slotIDs, bs.Timeslot.ID)
	}
	return bookingIDs, slotIDs
}

func patternsOf(bookings []*entity.BookingSlot) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, bs := range bookings {
		if bs.Booking.PatternID == nil {
			continue
		}
		id := *bs.Booking.PatternID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sortBookingSlots(bookings []*entity.BookingSlot) {
	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := bookings[i].Timeslot, bookings[j].Timeslot
		if !a.SlotDate.Equal(b.SlotDate) {
			return a.SlotDate.Before(b.SlotDate)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return bookings[i].Booking.ID < bookings[j].Booking.ID
	})
}

