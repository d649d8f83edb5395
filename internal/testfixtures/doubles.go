package testfixtures

import (
	"context"
	"encoding/json"
	"sync"

	"room-reservation/internal/cache"
	"room-reservation/internal/notify"
)

// Dispatcher records dispatched events and can be told to fail.
type Dispatcher struct {
	mu     sync.Mutex
	events []notify.Event
	Err    error
}

func (d *Dispatcher) Dispatch(_ context.Context, event notify.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.events = append(d.events, event)
	return nil
}

func (d *Dispatcher) Close() error { return nil }

func (d *Dispatcher) Events() []notify.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Event(nil), d.events...)
}

// Cache is an in-memory CalendarCache that records invalidations.
type Cache struct {
	mu          sync.Mutex
	entries     map[int64][]byte
	generations map[int64]int64
	invalidated []int64

	// BeforeSet, when set, runs at the start of every Set.
	BeforeSet func(roomID int64)
}

func NewCache() *Cache {
	return &Cache{entries: make(map[int64][]byte), generations: make(map[int64]int64)}
}

func (c *Cache) Get(_ context.Context, roomID int64, dest any) (int64, error) {
	c.mu.Lock()
	raw, ok := c.entries[roomID]
	gen := c.generations[roomID]
	c.mu.Unlock()
	if !ok {
		return gen, cache.ErrMiss
	}
	return gen, json.Unmarshal(raw, dest)
}

func (c *Cache) Set(_ context.Context, roomID, generation int64, value any) error {
	if c.BeforeSet != nil {
		c.BeforeSet(roomID)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[roomID] != generation {
		return nil
	}
	c.entries[roomID] = raw
	return nil
}

func (c *Cache) Invalidate(_ context.Context, roomIDs ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range roomIDs {
		delete(c.entries, id)
		c.generations[id]++
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

func (c *Cache) Has(roomID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[roomID]
	return ok
}

func (c *Cache) Invalidated() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.invalidated...)
}
