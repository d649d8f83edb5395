package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"time"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/data/repository"
	"room-reservation/pkg/dateutil"

	"github.com/google/uuid"
)

type transactor struct {
	store *Store
}

func (t *transactor) WithinTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snap := t.store.snapshot()
	scoped := t.store.repositories()
	scoped.Transactor = joined{repo: scoped}

	if err := fn(scoped); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type joined struct {
	repo *repository.Repository
}

func (j joined) WithinTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	return fn(j.repo)
}

// ----------------------------- users & sessions -----------------------------

type userRepo struct{ s *Store }

func (r userRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.find"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("session.find"); err != nil {
		return nil, err
	}
	sess, ok := r.s.sessions[token]
	if !ok || !sess.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return &sess, nil
}

// ----------------------------- rooms -----------------------------

type roomRepo struct{ s *Store }

func (r roomRepo) Create(_ context.Context, room *entity.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("room.create"); err != nil {
		return err
	}
	room.ID = r.s.id()
	r.s.rooms[room.ID] = *room
	return nil
}

func (r roomRepo) FindByID(_ context.Context, id int64) (*entity.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("room.find"); err != nil {
		return nil, err
	}
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (r roomRepo) FindAll(_ context.Context, includeHidden bool) ([]*entity.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("room.list"); err != nil {
		return nil, err
	}
	var rooms []*entity.Room
	for _, room := range r.s.rooms {
		if room.IsVisible || includeHidden {
			room := room
			rooms = append(rooms, &room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name != rooms[j].Name {
			return rooms[i].Name < rooms[j].Name
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms, nil
}

func (r roomRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("room.delete"); err != nil {
		return err
	}
	if _, ok := r.s.rooms[id]; !ok {
		return fmt.Errorf("room %d: %w", id, repository.ErrNotFound)
	}
	delete(r.s.rooms, id)
	for sid, ts := range r.s.slots {
		if ts.RoomID == id {
			r.s.deleteSlot(sid)
		}
	}
	return nil
}

// deleteSlot removes a timeslot and, as ON DELETE CASCADE does, its booking.
func (s *Store) deleteSlot(id int64) {
	delete(s.slots, id)
	for bid, b := range s.bookings {
		if b.TimeslotID == id {
			delete(s.bookings, bid)
		}
	}
}

// ----------------------------- timeslots -----------------------------

type timeslotRepo struct{ s *Store }

func (r timeslotRepo) Create(_ context.Context, slot *entity.Timeslot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("timeslot.create"); err != nil {
		return err
	}
	if _, ok := r.s.rooms[slot.RoomID]; !ok {
		return fmt.Errorf("create timeslot: room %d does not exist", slot.RoomID)
	}
	if slot.EndTime <= slot.StartTime {
		return fmt.Errorf("create timeslot: end must be after start")
	}

	// Mirrors the exclusion constraint on active slots.
	if slot.Status.Active() {
		for _, other := range r.s.slots {
			if other.RoomID == slot.RoomID && other.Status.Active() &&
				other.SlotDate.Equal(slot.SlotDate) &&
				dateutil.Overlaps(other.StartTime, other.EndTime, slot.StartTime, slot.EndTime) {
				return repository.ErrSlotTaken
			}
		}
	}

	slot.ID = r.s.id()
	slot.SlotDate = dateutil.DateOf(slot.SlotDate)
	r.s.slots[slot.ID] = *slot
	return nil
}

func (r timeslotRepo) FindByID(_ context.Context, id int64) (*entity.Timeslot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("timeslot.find"); err != nil {
		return nil, err
	}
	ts, ok := r.s.slots[id]
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

func (r timeslotRepo) UpdateStatus(_ context.Context, ids []int64, status entity.TimeslotStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("timeslot.update_status"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		ts, ok := r.s.slots[id]
		if !ok {
			continue
		}
		ts.Status = status
		r.s.slots[id] = ts
		n++
	}
	return n, nil
}

func (r timeslotRepo) Delete(_ context.Context, ids []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("timeslot.delete"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.s.slots[id]; !ok {
			continue
		}
		r.s.deleteSlot(id)
		n++
	}
	return n, nil
}

func (r timeslotRepo) FindActiveOverlapping(_ context.Context, roomID int64, dates []time.Time, start, end dateutil.TimeOfDay) ([]entity.Occupancy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("timeslot.find_overlapping"); err != nil {
		return nil, err
	}

	wanted := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		wanted[dateutil.DateOf(d)] = struct{}{}
	}

	var slots []entity.Timeslot
	for _, ts := range r.s.slots {
		if ts.RoomID != roomID || !ts.Status.Active() {
			continue
		}
		if _, ok := wanted[ts.SlotDate]; !ok {
			continue
		}
		if dateutil.Overlaps(ts.StartTime, ts.EndTime, start, end) {
			slots = append(slots, ts)
		}
	}
	sortSlots(slots)

	hits := make([]entity.Occupancy, 0, len(slots))
	for _, ts := range slots {
		hit := entity.Occupancy{Timeslot: ts}
		if b, ok := r.s.bookingOfSlot(ts.ID); ok {
			reason := b.Reason
			hit.BookingReason = &reason
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (r timeslotRepo) DeleteBlocked(_ context.Context, id int64) (*entity.Timeslot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("timeslot.delete_blocked"); err != nil {
		return nil, err
	}
	ts, ok := r.s.slots[id]
	if !ok || ts.Status != entity.TimeslotBlocked {
		return nil, nil
	}
	r.s.deleteSlot(id)
	return &ts, nil
}

func (r timeslotRepo) LockRoom(context.Context, int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.enter("timeslot.lock_room")
}

func (s *Store) bookingOfSlot(slotID int64) (entity.Booking, bool) {
	for _, b := range s.bookings {
		if b.TimeslotID == slotID {
			return b, true
		}
	}
	return entity.Booking{}, false
}

// ----------------------------- bookings -----------------------------

type bookingRepo struct{ s *Store }

func (r bookingRepo) Create(_ context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("booking.create"); err != nil {
		return err
	}
	if _, ok := r.s.slots[booking.TimeslotID]; !ok {
		return fmt.Errorf("create booking: timeslot %d does not exist", booking.TimeslotID)
	}
	if _, taken := r.s.bookingOfSlot(booking.TimeslotID); taken {
		return fmt.Errorf("create booking: timeslot %d already has a booking", booking.TimeslotID)
	}
	if booking.PatternID != nil {
		if _, ok := r.s.patterns[*booking.PatternID]; !ok {
			return fmt.Errorf("create booking: pattern %d does not exist", *booking.PatternID)
		}
	}

	booking.ID = r.s.id()
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r bookingRepo) withSlot(b entity.Booking) *entity.BookingSlot {
	return &entity.BookingSlot{Booking: b, Timeslot: r.s.slots[b.TimeslotID]}
}

func (r bookingRepo) FindWithSlot(_ context.Context, id int64) (*entity.BookingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("booking.find"); err != nil {
		return nil, err
	}
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return r.withSlot(b), nil
}

func (r bookingRepo) FindWithSlots(_ context.Context, ids []int64) ([]*entity.BookingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("booking.find_many"); err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{})
	var out []*entity.BookingSlot
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if b, ok := r.s.bookings[id]; ok {
			out = append(out, r.withSlot(b))
		}
	}
	sortBookingSlots(out)
	return out, nil
}

func (r bookingRepo) FindByPattern(_ context.Context, patternID int64) ([]*entity.BookingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("booking.find_by_pattern"); err != nil {
		return nil, err
	}
	var out []*entity.BookingSlot
	for _, b := range r.s.bookings {
		if b.PatternID != nil && *b.PatternID == patternID {
			out = append(out, r.withSlot(b))
		}
	}
	sortBookingSlots(out)
	return out, nil
}

func (r bookingRepo) CountByPattern(_ context.Context, patternID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("booking.count_by_pattern"); err != nil {
		return 0, err
	}
	var n int64
	for _, b := range r.s.bookings {
		if b.PatternID != nil && *b.PatternID == patternID {
			n++
		}
	}
	return n, nil
}

func (r bookingRepo) UpdateStatus(_ context.Context, ids []int64, status entity.BookingStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("booking.update_status"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		b, ok := r.s.bookings[id]
		if !ok {
			continue
		}
		b.Status = status
		r.s.bookings[id] = b
		n++
	}
	return n, nil
}

func (r bookingRepo) Delete(_ context.Context, ids []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("booking.delete"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.s.bookings[id]; ok {
			delete(r.s.bookings, id)
			n++
		}
	}
	return n, nil
}

func (r bookingRepo) ConfirmElapsed(_ context.Context, date time.Time, clock string) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("booking.confirm_elapsed"); err != nil {
		return nil, err
	}

	cutoff, err := time.Parse("15:04:05", clock)
	if err != nil {
		return nil, fmt.Errorf("confirm elapsed bookings: %w", err)
	}
	cutoffSeconds := cutoff.Hour()*3600 + cutoff.Minute()*60 + cutoff.Second()
	date = dateutil.DateOf(date)

	var ids []int64
	for id, b := range r.s.bookings {
		if b.Status != entity.BookingPending {
			continue
		}
		ts := r.s.slots[b.TimeslotID]
		elapsed := ts.SlotDate.Before(date) ||
			(ts.SlotDate.Equal(date) && int(ts.StartTime)*60 < cutoffSeconds)
		if elapsed {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rooms := make([]int64, 0, len(ids))
	for _, id := range ids {
		b := r.s.bookings[id]
		b.Status = entity.BookingConfirmed
		r.s.bookings[id] = b
		rooms = append(rooms, r.s.slots[b.TimeslotID].RoomID)
	}
	return rooms, nil
}

func sortBookingSlots(out []*entity.BookingSlot) {
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Timeslot, out[j].Timeslot
		if !a.SlotDate.Equal(b.SlotDate) {
			return a.SlotDate.Before(b.SlotDate)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return out[i].Booking.ID < out[j].Booking.ID
	})
}

// ----------------------------- patterns -----------------------------

type patternRepo struct{ s *Store }

func (r patternRepo) Create(_ context.Context, pattern *entity.RecurringPattern) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("pattern.create"); err != nil {
		return err
	}
	pattern.ID = r.s.id()
	r.s.patterns[pattern.ID] = *pattern
	return nil
}

func (r patternRepo) FindByID(_ context.Context, id int64) (*entity.RecurringPattern, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("pattern.find"); err != nil {
		return nil, err
	}
	p, ok := r.s.patterns[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r patternRepo) UpdateEndDate(_ context.Context, id int64, endDate time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("pattern.update_end_date"); err != nil {
		return err
	}
	p, ok := r.s.patterns[id]
	if !ok {
		return fmt.Errorf("pattern %d: %w", id, repository.ErrNotFound)
	}
	p.EndDate = dateutil.DateOf(endDate)
	p.UntilDate = dateutil.DateOf(endDate)
	r.s.patterns[id] = p
	return nil
}

func (r patternRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("pattern.delete"); err != nil {
		return err
	}
	delete(r.s.patterns, id)
	for bid, b := range r.s.bookings {
		if b.PatternID != nil && *b.PatternID == id {
			delete(r.s.bookings, bid)
		}
	}
	return nil
}

func (r patternRepo) FindIDsByRoom(_ context.Context, roomID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("pattern.find_by_room"); err != nil {
		return nil, err
	}
	seen := map[int64]bool{}
	var ids []int64
	for _, b := range r.s.bookings {
		if b.PatternID == nil || seen[*b.PatternID] {
			continue
		}
		if ts, ok := r.s.slots[b.TimeslotID]; ok && ts.RoomID == roomID {
			seen[*b.PatternID] = true
			ids = append(ids, *b.PatternID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ----------------------------- calendar -----------------------------

type calendarRepo struct{ s *Store }

func (r calendarRepo) FindRoomCalendar(_ context.Context, roomID int64) ([]*entity.CalendarEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("calendar.room"); err != nil {
		return nil, err
	}

	var slots []entity.Timeslot
	for _, ts := range r.s.slots {
		if ts.RoomID == roomID {
			slots = append(slots, ts)
		}
	}
	sortSlots(slots)

	entries := make([]*entity.CalendarEntry, 0, len(slots))
	for _, ts := range slots {
		e := &entity.CalendarEntry{Timeslot: ts, RoomName: r.s.rooms[roomID].Name}
		if b, ok := r.s.bookingOfSlot(ts.ID); ok {
			id, status, reason, userID := b.ID, b.Status, b.Reason, b.UserID
			e.BookingID = &id
			e.BookingStatus = &status
			e.Reason = &reason
			e.UserID = &userID
			if u, ok := r.s.users[b.UserID]; ok {
				name := u.Name
				e.UserName = &name
			}
			e.IsRecurring = b.IsRecurring
			e.PatternID = b.PatternID
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r calendarRepo) FindUserBookings(_ context.Context, userID int64) ([]*entity.UserBookingEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("calendar.user"); err != nil {
		return nil, err
	}

	var entries []*entity.UserBookingEntry
	for _, b := range r.s.bookings {
		if b.UserID != userID {
			continue
		}
		ts := r.s.slots[b.TimeslotID]
		e := &entity.UserBookingEntry{Booking: b, Timeslot: ts, RoomName: r.s.rooms[ts.RoomID].Name}
		if b.PatternID != nil {
			if p, ok := r.s.patterns[*b.PatternID]; ok {
				freq, end, until := p.Frequency, p.EndDate, p.UntilDate
				e.Frequency, e.EndDate, e.UntilDate = &freq, &end, &until
			}
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return lessSlot(entries[i].Timeslot, entries[j].Timeslot, entries[i].Booking.ID, entries[j].Booking.ID)
	})
	return entries, nil
}

func (r calendarRepo) FindPendingRequests(_ context.Context) ([]*entity.PendingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("calendar.pending"); err != nil {
		return nil, err
	}

	var out []*entity.PendingRequest
	for _, b := range r.s.bookings {
		if b.Status != entity.BookingPending {
			continue
		}
		u, ok := r.s.users[b.UserID]
		if !ok {
			continue
		}
		ts := r.s.slots[b.TimeslotID]
		req := &entity.PendingRequest{
			Booking:   b,
			Timeslot:  ts,
			RoomName:  r.s.rooms[ts.RoomID].Name,
			UserName:  u.Name,
			UserEmail: u.Email,
		}
		if b.PatternID != nil {
			if p, ok := r.s.patterns[*b.PatternID]; ok {
				freq, until := p.Frequency, p.UntilDate
				req.Frequency, req.UntilDate = &freq, &until
			}
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessSlot(out[i].Timeslot, out[j].Timeslot, out[i].Booking.ID, out[j].Booking.ID)
	})
	return out, nil
}

func lessSlot(a, b entity.Timeslot, aID, bID int64) bool {
	if !a.SlotDate.Equal(b.SlotDate) {
		return a.SlotDate.Before(b.SlotDate)
	}
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	return aID < bID
}
