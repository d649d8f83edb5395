package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"room-reservation/pkg/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	keyPrefix = "room-reservation:calendar:room:"
	genPrefix = "room-reservation:calendar:gen:"

	// genTTL bounds how long an untouched generation counter lives. It only has to outlast
	// a single calendar read.
	genTTL = 24 * time.Hour
)

var errStale = errors.New("calendar generation moved")

func NewRedisClient(cfg utils.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

type RedisCalendarCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisCalendarCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCalendarCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCalendarCache{
		client: client,
		ttl:    ttl,
		log:    log.With(zap.String("cache", "calendar")),
	}
}

func roomKey(roomID int64) string {
	return keyPrefix + strconv.FormatInt(roomID, 10)
}

func genKey(roomID int64) string {
	return genPrefix + strconv.FormatInt(roomID, 10)
}

func parseGeneration(v any) (int64, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func (c *RedisCalendarCache) Get(ctx context.Context, roomID int64, dest any) (int64, error) {
	vals, err := c.client.MGet(ctx, genKey(roomID), roomKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("get calendar of room %d: %w", roomID, err)
	}

	gen, err := parseGeneration(vals[0])
	if err != nil {
		return 0, fmt.Errorf("calendar generation of room %d: %w", roomID, err)
	}

	raw, ok := vals[1].(string)
	if !ok {
		return gen, ErrMiss
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// A stale layout is treated as a miss and overwritten by the next Set.
		c.log.Warn("Dropping undecodable calendar entry", zap.Error(err), zap.Int64("room_id", roomID))
		return gen, ErrMiss
	}
	return gen, nil
}

func (c *RedisCalendarCache) Set(ctx context.Context, roomID, generation int64, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode calendar of room %d: %w", roomID, err)
	}

	gk := genKey(roomID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		v, err := tx.Get(ctx, gk).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		current, err := parseGeneration(v)
		if err != nil {
			return err
		}
		if current != generation {
			return errStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, roomKey(roomID), raw, c.ttl)
			return nil
		})
		return err
	}, gk)

	if errors.Is(err, errStale) || errors.Is(err, redis.TxFailedErr) {
		c.log.Debug("Skipping stale calendar fill",
			zap.Int64("room_id", roomID), zap.Int64("generation", generation))
		return nil
	}
	if err != nil {
		return fmt.Errorf("set calendar of room %d: %w", roomID, err)
	}
	return nil
}

func (c *RedisCalendarCache) Invalidate(ctx context.Context, roomIDs ...int64) error {
	if len(roomIDs) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(roomIDs))
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range roomIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			pipe.Incr(ctx, genKey(id))
			pipe.Expire(ctx, genKey(id), genTTL)
			pipe.Del(ctx, roomKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate %d calendars: %w", len(seen), err)
	}
	return nil
}
