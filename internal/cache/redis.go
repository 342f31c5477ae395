package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/submission-ticker-api/internal/config"
	"github.com/submission-ticker-api/internal/models"
)

const (
	keyPrefix        = "ticker:approved:"
	generationPrefix = "ticker:generation:"
)

// errStaleFill aborts a fill whose list was read before the last invalidation
var errStaleFill = errors.New("cache generation changed")

// FeedCache stores the approved list per resource in Redis.
// Failures degrade to cache misses; the database stays the source of truth.
type FeedCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewClient opens a Redis client and verifies the connection
func NewClient(ctx context.Context, cfg *config.CacheConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// NewFeedCache creates a FeedCache whose entries expire after ttl
func NewFeedCache(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *FeedCache {
	return &FeedCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "feed_cache").Logger(),
	}
}

func key(resource models.Resource) string {
	return keyPrefix + string(resource)
}

func generationKey(resource models.Resource) string {
	return generationPrefix + string(resource)
}

// Generation returns the invalidation counter for a resource.
// Callers read it before loading the list they intend to store.
func (c *FeedCache) Generation(ctx context.Context, resource models.Resource) (uint64, bool) {
	gen, err := c.rdb.Get(ctx, generationKey(resource)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.log.Warn().Err(err).Str("resource", string(resource)).Msg("Cache generation read failed")
		return 0, false
	}
	return gen, true
}

func (c *FeedCache) GetApproved(ctx context.Context, resource models.Resource) ([]*models.Submission, bool) {
	data, err := c.rdb.Get(ctx, key(resource)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("resource", string(resource)).Msg("Cache read failed")
		return nil, false
	}

	var subs []*models.Submission
	if err := json.Unmarshal(data, &subs); err != nil {
		c.log.Warn().Err(err).Str("resource", string(resource)).Msg("Discarding corrupt cache entry")
		c.rdb.Del(ctx, key(resource))
		return nil, false
	}
	return subs, true
}

// SetApproved stores subs only if no invalidation happened since gen was read
func (c *FeedCache) SetApproved(ctx context.Context, resource models.Resource, gen uint64, subs []*models.Submission) {
	if subs == nil {
		subs = []*models.Submission{}
	}
	data, err := json.Marshal(subs)
	if err != nil {
		c.log.Warn().Err(err).Msg("Cache encode failed")
		return
	}

	genKey := generationKey(resource)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(resource), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		c.log.Debug().Str("resource", string(resource)).Msg("Skipping stale cache fill")
	default:
		c.log.Warn().Err(err).Str("resource", string(resource)).Msg("Cache write failed")
	}
}

// Invalidate drops the cached list and bumps the generation so in-flight fills are discarded
func (c *FeedCache) Invalidate(ctx context.Context, resource models.Resource) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(resource))
		pipe.Del(ctx, key(resource))
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("resource", string(resource)).Msg("Cache invalidation failed")
	}
}
