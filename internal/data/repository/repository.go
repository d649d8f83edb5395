package repository

import (
	"context"
	"errors"
	"fmt"

	"room-reservation/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrNotFound is wrapped by writes that matched no row.
var ErrNotFound = errors.New("not found")

// ErrSlotTaken is returned when the store itself rejects an overlapping active timeslot.
var ErrSlotTaken = errors.New("timeslot overlaps an active timeslot")

// Transactor runs fn against a Repository whose every member shares one transaction.
// The transaction commits when fn returns nil and rolls back otherwise. Calling WithinTx
// on a transaction-scoped Repository reuses the open transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *Repository) error) error
}

type Repository struct {
	User     UserRepository
	Session  SessionRepository
	Room     RoomRepository
	Timeslot TimeslotRepository
	Booking  BookingRepository
	Pattern  PatternRepository
	Calendar CalendarRepository
	Transactor
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepositories(db, log)
	repo.Transactor = &pgTransactor{db: db, log: log.With(zap.String("repository", "tx"))}
	return repo
}

func newRepositories(q database.DBTX, log *zap.Logger) *Repository {
	return &Repository{
		User:     NewUserRepository(q, log),
		Session:  NewSessionRepository(q, log),
		Room:     NewRoomRepository(q, log),
		Timeslot: NewTimeslotRepository(q, log),
		Booking:  NewBookingRepository(q, log),
		Pattern:  NewPatternRepository(q, log),
		Calendar: NewCalendarRepository(q, log),
	}
}

type pgTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(tx *Repository) error) (err error) {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		t.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			t.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
	}()

	scoped := newRepositories(tx, t.log)
	scoped.Transactor = joinedTx{repo: scoped}

	if err = fn(scoped); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		t.log.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type joinedTx struct {
	repo *Repository
}

func (j joinedTx) WithinTx(_ context.Context, fn func(tx *Repository) error) error {
	return fn(j.repo)
}
