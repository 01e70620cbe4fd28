package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "identity:user:"

// Cached fronts a Source with Redis. Only display attributes are cached;
// follow state and counts never pass through here. Redis failures are logged
// and the call falls through to the wrapped source.
type Cached struct {
	next Source
	rdb  redis.Cmdable
	ttl  time.Duration
	log  zerolog.Logger
}

func NewCached(next Source, rdb redis.Cmdable, ttl time.Duration, log zerolog.Logger) *Cached {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{next: next, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(id string) string { return cacheKeyPrefix + id }

// UserExists answers from the cache, and on a miss loads the full record so
// the next lookup of either kind is a hit.
func (c *Cached) UserExists(ctx context.Context, id string) (bool, error) {
	if _, ok := c.lookup(ctx, id); ok {
		return true, nil
	}
	u, err := c.next.GetUser(ctx, id)
	if apperrors.IsKind(err, apperrors.UnknownUser) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.store(ctx, u)
	return true, nil
}

func (c *Cached) GetUser(ctx context.Context, id string) (models.User, error) {
	if u, ok := c.lookup(ctx, id); ok {
		return u, nil
	}
	u, err := c.next.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	c.store(ctx, u)
	return u, nil
}

func (c *Cached) lookup(ctx context.Context, id string) (models.User, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("user_id", id).Msg("identity cache read failed")
		}
		return models.User{}, false
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		c.log.Warn().Err(err).Str("user_id", id).Msg("identity cache entry corrupt")
		return models.User{}, false
	}
	return u, true
}

func (c *Cached) store(ctx context.Context, u models.User) {
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(u.ID), string(raw), c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("user_id", u.ID).Msg("identity cache write failed")
	}
}
