// Package cache holds the room-calendar read cache.
package cache

import (
	"context"
	"errors"
)

// ErrMiss is returned by Get when no entry is stored for the room.
var ErrMiss = errors.New("cache miss")

// CalendarCache stores the rendered calendar of a room as JSON.
//
// Every Invalidate bumps the room's generation. Get reports the generation it observed,
// also on a miss, and Set stores only while that generation is still current, so a fill
// computed before a concurrent write is dropped instead of outliving the write.
type CalendarCache interface {
	Get(ctx context.Context, roomID int64, dest any) (int64, error)
	Set(ctx context.Context, roomID, generation int64, value any) error
	Invalidate(ctx context.Context, roomIDs ...int64) error
}

// Noop never stores anything. It is used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, int64, any) (int64, error) { return 0, ErrMiss }
func (Noop) Set(context.Context, int64, int64, any) error   { return nil }
func (Noop) Invalidate(context.Context, ...int64) error     { return nil }
