// Package testfixtures provides an in-memory Repository and other test doubles with the
// same observable semantics as the Postgres implementation.
package testfixtures

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/data/repository"
	"room-reservation/pkg/dateutil"

	"github.com/google/uuid"
)

// Store holds the tables. Transactions are serialized and restored from a snapshot when
// they fail, which gives the same outcome as row locks plus rollback.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID   int64
	users    map[int64]entity.User
	sessions map[uuid.UUID]entity.Session
	rooms    map[int64]entity.Room
	slots    map[int64]entity.Timeslot
	bookings map[int64]entity.Booking
	patterns map[int64]entity.RecurringPattern

	faults map[string]*fault
	calls  map[string]int
}

type fault struct {
	after int
	err   error
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]entity.User),
		sessions: make(map[uuid.UUID]entity.Session),
		rooms:    make(map[int64]entity.Room),
		slots:    make(map[int64]entity.Timeslot),
		bookings: make(map[int64]entity.Booking),
		patterns: make(map[int64]entity.RecurringPattern),
		faults:   make(map[string]*fault),
		calls:    make(map[string]int),
	}
}

// Repository returns a repository.Repository backed by the store.
func (s *Store) Repository() *repository.Repository {
	repo := s.repositories()
	repo.Transactor = &transactor{store: s}
	return repo
}

func (s *Store) repositories() *repository.Repository {
	return &repository.Repository{
		User:     userRepo{s},
		Session:  sessionRepo{s},
		Room:     roomRepo{s},
		Timeslot: timeslotRepo{s},
		Booking:  bookingRepo{s},
		Pattern:  patternRepo{s},
		Calendar: calendarRepo{s},
	}
}

// FailAfter makes op fail with err once it has succeeded n times. Operations are named
// "<table>.<method>", e.g. "booking.create".
func (s *Store) FailAfter(op string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{after: n, err: err}
	s.calls[op] = 0
}

// Calls reports how often op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter records a call of op and returns its injected error, if due. Callers hold mu.
func (s *Store) enter(op string) error {
	s.calls[op]++
	f, ok := s.faults[op]
	if !ok || s.calls[op] <= f.after {
		return nil
	}
	return f.err
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

type snapshot struct {
	nextID   int64
	users    map[int64]entity.User
	sessions map[uuid.UUID]entity.Session
	rooms    map[int64]entity.Room
	slots    map[int64]entity.Timeslot
	bookings map[int64]entity.Booking
	patterns map[int64]entity.RecurringPattern
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		nextID:   s.nextID,
		users:    copyMap(s.users),
		sessions: copyMap(s.sessions),
		rooms:    copyMap(s.rooms),
		slots:    copyMap(s.slots),
		bookings: copyMap(s.bookings),
		patterns: copyMap(s.patterns),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.users = snap.users
	s.sessions = snap.sessions
	s.rooms = snap.rooms
	s.slots = snap.slots
	s.bookings = snap.bookings
	s.patterns = snap.patterns
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ----------------------------- Seeding -----------------------------

func (s *Store) AddUser(name string, role entity.UserRole) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := entity.User{
		Base:  entity.Base{ID: s.id(), CreatedAt: ReferenceTime, UpdatedAt: ReferenceTime},
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", name),
		Role:  role,
	}
	s.users[u.ID] = u
	return u
}

func (s *Store) AddSession(userID int64, expiresAt time.Time) entity.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := entity.Session{
		Token:     uuid.New(),
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: ReferenceTime,
	}
	s.sessions[sess.Token] = sess
	return sess
}

func (s *Store) AddRoom(name string, visible bool) entity.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := entity.Room{
		Base:      entity.Base{ID: s.id(), CreatedAt: ReferenceTime, UpdatedAt: ReferenceTime},
		Name:      name,
		IsVisible: visible,
	}
	s.rooms[r.ID] = r
	return r
}

// AddBooking inserts a booked timeslot with its booking, bypassing every check.
func (s *Store) AddBooking(userID, roomID int64, date string, start, end string, status entity.BookingStatus, reason string) (entity.Booking, entity.Timeslot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := entity.Timeslot{
		Base:      entity.Base{ID: s.id(), CreatedAt: ReferenceTime, UpdatedAt: ReferenceTime},
		RoomID:    roomID,
		SlotDate:  mustDate(date),
		StartTime: mustTime(start),
		EndTime:   mustTime(end),
		Status:    entity.TimeslotBooked,
	}
	s.slots[ts.ID] = ts
	b := entity.Booking{
		Base:       entity.Base{ID: s.id(), CreatedAt: ReferenceTime, UpdatedAt: ReferenceTime},
		UserID:     userID,
		TimeslotID: ts.ID,
		Reason:     reason,
		Status:     status,
	}
	s.bookings[b.ID] = b
	return b, ts
}

// AddBlock inserts a blocked timeslot, bypassing every check.
func (s *Store) AddBlock(roomID int64, date, start, end string, reason *string) entity.Timeslot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := entity.Timeslot{
		Base:          entity.Base{ID: s.id(), CreatedAt: ReferenceTime, UpdatedAt: ReferenceTime},
		RoomID:        roomID,
		SlotDate:      mustDate(date),
		StartTime:     mustTime(start),
		EndTime:       mustTime(end),
		Status:        entity.TimeslotBlocked,
		BlockedReason: reason,
	}
	s.slots[ts.ID] = ts
	return ts
}

func mustDate(s string) time.Time {
	d, err := dateutil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustTime(s string) dateutil.TimeOfDay {
	t, err := dateutil.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ----------------------------- Inspection -----------------------------

func (s *Store) Booking(id int64) (entity.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *Store) Timeslot(id int64) (entity.Timeslot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.slots[id]
	return ts, ok
}

func (s *Store) Pattern(id int64) (entity.RecurringPattern, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patterns[id]
	return p, ok
}

// Bookings returns every booking ordered by id.
func (s *Store) Bookings() []entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Timeslots returns every timeslot ordered by room, date and start time.
func (s *Store) Timeslots() []entity.Timeslot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Timeslot, 0, len(s.slots))
	for _, ts := range s.slots {
		out = append(out, ts)
	}
	sortSlots(out)
	return out
}

func (s *Store) PatternCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patterns)
}

func sortSlots(slots []entity.Timeslot) {
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.RoomID != b.RoomID {
			return a.RoomID < b.RoomID
		}
		if !a.SlotDate.Equal(b.SlotDate) {
			return a.SlotDate.Before(b.SlotDate)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}
